package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"unifeed-backend/lib/serviceutil"
	"unifeed-backend/lib/telemetry"
)

// InitTelemetry sets up logging and, when a telemetry.json5 is found, otel exporters.
// The returned func flushes everything, call it on shutdown.
func InitTelemetry(ctx context.Context, verbose bool, logCfg telemetry.LogConfig) func() {
	var logFile io.Closer = telemetry.InitSlog(verbose, logCfg)
	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	t, err := telemetry.SetupFromEnv(ctx, "unifeed-server")
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("telemetry.json5 not found, traces and metrics are disabled")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	return func() {
		err := t.Shutdown(context.Background())
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
		logFile.Close()
	}
}
