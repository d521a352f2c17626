package main

import (
	"encoding/json"
	"fmt"

	"github.com/fyrsmithlabs/otelboot/internal/telemetry"
	"github.com/spf13/cobra"
)

// configReport is what `otelboot config` prints.
type configReport struct {
	// Enabled reports whether the runtime gate is open.
	Enabled          bool              `json:"enabled"`
	Instrumentations []string          `json:"instrumentations"`
	Telemetry        *telemetry.Config `json:"telemetry"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved telemetry configuration",
	Long: `Print the telemetry configuration the current environment resolves to,
as JSON. Exporter headers are redacted.

Examples:
  # Inspect defaults
  otelboot config

  # Check an override
  OTEL_EXPORTER_OTLP_ENDPOINT=https://collector.example.com otelboot config`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg := telemetry.ConfigFromEnv(nil)

	report := configReport{
		Enabled:          telemetryGateOpen(),
		Instrumentations: append([]string{telemetry.AutoInstrumentationName}, telemetry.DefaultRegistry().Names()...),
		Telemetry:        cfg,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("telemetry would fail to start: %w", err)
	}
	return nil
}
