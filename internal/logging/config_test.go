package logging

import (
	"strings"
	"testing"
	"time"

	"github.com/fyrsmithlabs/otelboot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Output.Stdout)
	assert.False(t, cfg.Output.OTEL)
	assert.True(t, cfg.Sampling.Enabled)
	assert.Equal(t, time.Second, cfg.Sampling.Tick.Duration())
	assert.True(t, cfg.Redaction.Enabled)
	assert.Contains(t, cfg.Redaction.Fields, "headers")
	assert.Equal(t, "otelboot", cfg.Fields["service"])
	require.NoError(t, cfg.Validate())
}

func TestLevelSamplingConfig_Defaults(t *testing.T) {
	defaults := DefaultLevelSamplingConfig()

	assert.Equal(t, LevelSamplingConfig{Initial: 1, Thereafter: 0}, defaults[TraceLevel])
	assert.Equal(t, LevelSamplingConfig{Initial: 10, Thereafter: 0}, defaults[zapcore.DebugLevel])
	assert.Equal(t, LevelSamplingConfig{Initial: 100, Thereafter: 10}, defaults[zapcore.InfoLevel])
	assert.Equal(t, LevelSamplingConfig{Initial: 100, Thereafter: 100}, defaults[zapcore.WarnLevel])

	_, exists := defaults[zapcore.ErrorLevel]
	assert.False(t, exists, "errors are never sampled")
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"trace", TraceLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := LevelFromString(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Level:  zapcore.InfoLevel,
			Format: "json",
			Output: OutputConfig{Stdout: true},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"minimal", func(*Config) {}, ""},
		{"console format", func(c *Config) { c.Format = "console" }, ""},
		{"otel only", func(c *Config) { c.Output = OutputConfig{OTEL: true} }, ""},
		{"invalid format", func(c *Config) { c.Format = "xml" }, "format must be 'json' or 'console'"},
		{"no output", func(c *Config) { c.Output = OutputConfig{} }, "at least one output must be enabled"},
		{
			"zero sampling tick",
			func(c *Config) { c.Sampling = SamplingConfig{Enabled: true, Tick: config.Duration(0)} },
			"sampling tick must be > 0",
		},
		{"caller disabled ignores skip", func(c *Config) { c.Caller = CallerConfig{Skip: -1} }, ""},
		{"negative caller skip", func(c *Config) { c.Caller = CallerConfig{Enabled: true, Skip: -1} }, "caller skip must be >= 0"},
		{
			"redaction disabled ignores patterns",
			func(c *Config) { c.Redaction = RedactionConfig{Patterns: []string{"[invalid("}} },
			"",
		},
		{
			"bad redaction pattern",
			func(c *Config) { c.Redaction = RedactionConfig{Enabled: true, Patterns: []string{"[invalid("}} },
			"invalid redaction pattern",
		},
		{
			"redaction pattern too long",
			func(c *Config) {
				c.Redaction = RedactionConfig{Enabled: true, Patterns: []string{strings.Repeat("a", maxPatternLen+1)}}
			},
			"pattern too long",
		},
		{"empty field key", func(c *Config) { c.Fields = map[string]string{"": "v"} }, "field key cannot be empty"},
		{"empty field value", func(c *Config) { c.Fields = map[string]string{"k": ""} }, "empty value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
