package config

import (
	"os"
	"strconv"
	"time"
)

// LookupFunc reads an environment variable. os.Getenv satisfies it; tests
// pass a map-backed function instead of mutating the process environment.
type LookupFunc func(key string) string

// MapLookup returns a LookupFunc backed by a fixed map.
func MapLookup(env map[string]string) LookupFunc {
	return func(key string) string {
		return env[key]
	}
}

// OSLookup reads from the process environment.
var OSLookup LookupFunc = os.Getenv

// String returns the variable, or defaultValue when it is unset or empty.
func (l LookupFunc) String(key, defaultValue string) string {
	if value := l(key); value != "" {
		return value
	}
	return defaultValue
}

// FirstString returns the first non-empty variable among keys, or defaultValue.
func (l LookupFunc) FirstString(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := l(key); value != "" {
			return value
		}
	}
	return defaultValue
}

// Int parses the variable as a base-10 integer. Unset, empty or
// unparseable values yield defaultValue.
func (l LookupFunc) Int(key string, defaultValue int) int {
	if value := l(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// PositiveInt is Int, but zero and negative values also yield defaultValue.
func (l LookupFunc) PositiveInt(key string, defaultValue int) int {
	if parsed := l.Int(key, defaultValue); parsed > 0 {
		return parsed
	}
	return defaultValue
}

// Float parses the variable as a float64, falling back to defaultValue.
func (l LookupFunc) Float(key string, defaultValue float64) float64 {
	if value := l(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Bool parses the variable with strconv.ParseBool, falling back to defaultValue.
func (l LookupFunc) Bool(key string, defaultValue bool) bool {
	if value := l(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Duration parses the variable with time.ParseDuration, falling back to defaultValue.
func (l LookupFunc) Duration(key string, defaultValue time.Duration) time.Duration {
	if value := l(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
