//go:build !nologbridge

package main

import _ "github.com/fyrsmithlabs/otelboot/internal/telemetry/logbridge"
