// Otelboot is a server process that bootstraps OpenTelemetry at startup.
//
// When NEXT_RUNTIME=nodejs the process starts an OTLP SDK for traces, metrics
// and logs configured from the standard OTEL_* variables. In any other runtime
// it serves without telemetry.
//
// Usage:
//
//	# Start the server with telemetry
//	NEXT_RUNTIME=nodejs otelboot serve
//
//	# Send everything to a TLS collector over HTTP
//	NEXT_RUNTIME=nodejs OTEL_EXPORTER_OTLP_ENDPOINT=https://collector.example.com otelboot serve
//
//	# Show the telemetry configuration the environment resolves to
//	otelboot config
//
// Build with -tags nologbridge to leave structured log export out of the
// binary; logs are then only written to stdout.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "otelboot",
	Short: "Server process with OpenTelemetry bootstrap",
	Long: `otelboot runs an HTTP server that brings up an OpenTelemetry SDK at
startup when running in the server runtime (NEXT_RUNTIME=nodejs).`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
