package commands

import (
	"context"
	"fmt"
	"os"
	"unifeed-backend/internal/app"
	"unifeed-backend/lib/cache"
	"unifeed-backend/lib/serviceutil"
	"unifeed-backend/lib/telemetry"
	"unifeed-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "unifeed-cli",
	Short: "unifeed-cli scrapes the university site from the terminal and manages the api's cache.",
}

var configPath *string

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The server configuration file to use.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type environment struct {
	cfg      app.Config
	store    cache.Store
	services app.Services
}

// load builds the same services the server runs on top of the configured cache.
func load() environment {
	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	store, err := cache.Open(cfg.Cache, timezone.Now)
	if err != nil {
		serviceutil.Fatal("failed to open cache", err)
	}
	return environment{
		cfg:      cfg,
		store:    store,
		services: app.InitServices(cfg, store, telemetry.NewSlogAPI(nil)),
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
