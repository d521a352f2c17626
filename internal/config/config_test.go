package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "invalid server port"},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.Server.ShutdownTimeout = 0 }, wantErr: "shutdown timeout must be positive"},
		{name: "unknown format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLookupFunc_String(t *testing.T) {
	env := MapLookup(map[string]string{"SET": "value", "EMPTY": ""})

	assert.Equal(t, "value", env.String("SET", "fallback"))
	assert.Equal(t, "fallback", env.String("EMPTY", "fallback"))
	assert.Equal(t, "fallback", env.String("UNSET", "fallback"))
}

func TestLookupFunc_FirstString(t *testing.T) {
	env := MapLookup(map[string]string{"B": "b", "C": "c"})

	assert.Equal(t, "b", env.FirstString("def", "A", "B", "C"))
	assert.Equal(t, "def", env.FirstString("def", "A", "Z"))
	assert.Equal(t, "def", env.FirstString("def"))
}

func TestLookupFunc_Int(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 5000},
		{"1000", 1000},
		{"0", 0},
		{"-5", -5},
		{"abc", 5000},
		{"12.5", 5000},
		{" 10", 5000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.value), func(t *testing.T) {
			env := MapLookup(map[string]string{"N": tt.value})
			assert.Equal(t, tt.want, env.Int("N", 5000))
		})
	}
}

func TestLookupFunc_PositiveInt(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 5000},
		{"250", 250},
		{"0", 5000},
		{"-1", 5000},
		{"NaN", 5000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.value), func(t *testing.T) {
			env := MapLookup(map[string]string{"N": tt.value})
			assert.Equal(t, tt.want, env.PositiveInt("N", 5000))
		})
	}
}

func TestLookupFunc_TypedValues(t *testing.T) {
	env := MapLookup(map[string]string{
		"RATIO":       "0.25",
		"BAD_RATIO":   "quarter",
		"FLAG":        "true",
		"BAD_FLAG":    "maybe",
		"TIMEOUT":     "2s",
		"BAD_TIMEOUT": "soon",
	})

	assert.Equal(t, 0.25, env.Float("RATIO", 1))
	assert.Equal(t, 1.0, env.Float("BAD_RATIO", 1))
	assert.True(t, env.Bool("FLAG", false))
	assert.False(t, env.Bool("BAD_FLAG", false))
	assert.Equal(t, 2*time.Second, env.Duration("TIMEOUT", time.Second))
	assert.Equal(t, time.Second, env.Duration("BAD_TIMEOUT", time.Second))
}

func TestOSLookup(t *testing.T) {
	t.Setenv("OTELBOOT_TEST_VALUE", "from-os")
	assert.Equal(t, "from-os", OSLookup.String("OTELBOOT_TEST_VALUE", "fallback"))
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1500ms")))
	assert.Equal(t, 1500*time.Millisecond, d.Duration())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("later")))
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("authorization=Bearer abc")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "authorization=Bearer abc", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(struct{ Headers Secret }{s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Headers":"[REDACTED]"}`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}
