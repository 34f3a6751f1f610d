package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unifeed-backend/lib/cache"
)

const stateDir = "dev/.state"

var cacheFile = filepath.Join(stateDir, "cache.db")

const configTemplate = `{
  // overridden by PORT
  port: 3000,
  // overridden by APP_ENV
  env: "development",
  auth: {
    // overridden by API_TOKEN
    access_token: "dev-token",
    strict: true,
  },
  cache: {
    driver: "sqlite",
    sql: { file: %q },
  },
  cache_ttl_seconds: 3600,
  fetch: { timeout_seconds: 10, max_redirects: 5 },
  log: { file: %q, max_size_mb: 10, max_backups: 3 },
  // every 30 minutes between 06:00 and 23:59
  warm_cron: "*/30 6-23 * * *",
  sweep_cron: "@hourly",
  warm_departments: ["bilgisayarMuhendisligi"],
}
`

const telemetryTemplate = `{
  otlp: {
    traces: { grpc_endpoint: "localhost:4317" },
    metrics: { grpc_endpoint: "localhost:4317" },
  },
}
`

func writeOnce(path, contents string) error {
	_, err := os.Stat(path)
	if err == nil {
		fmt.Println("already exists, leaving", path, "alone")
		return nil
	}
	fmt.Println("writing", path)
	return os.WriteFile(path, []byte(contents), 0644)
}

// WriteConfigs writes a config.json5 and telemetry.json5 for local development
// to the repository root unless they exist.
func WriteConfigs() error {
	err := writeOnce("config.json5", fmt.Sprintf(
		configTemplate,
		cacheFile,
		filepath.Join(stateDir, "server.log"),
	))
	if err != nil {
		return err
	}
	return writeOnce(filepath.Join(stateDir, "telemetry.json5.example"), telemetryTemplate)
}

func CreateCacheDB() error {
	fmt.Println("creating cache database at", cacheFile)
	store, err := cache.OpenSQL(cache.SQLConfig{File: cacheFile}, nil)
	if err != nil {
		return err
	}
	return store.Close()
}

func PrintConfigLocations() {
	slog.Info(
		"config.json5 points the server at the sqlite cache in dev/.state, copy dev/.state/telemetry.json5.example to telemetry.json5 to export traces and metrics to a local collector.",
	)
}
