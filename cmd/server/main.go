package main

import (
	"flag"
	"log/slog"
	"time"
	"unifeed-backend/internal/app"
	"unifeed-backend/lib/cache"
	"unifeed-backend/lib/chrono"
	"unifeed-backend/lib/serviceutil"
	"unifeed-backend/lib/telemetry"
	"unifeed-backend/lib/timezone"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the configuration file.")
	warm := flag.Bool("warm", false, "Warm every cache immediately on run.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	shutdown := InitTelemetry(ctx, *verbose, cfg.Log)
	defer shutdown()

	if cfg.Auth.AccessToken == "" {
		err := serviceutil.ConfigurationError{Field: "auth.access_token", Reason: "is empty (set API_TOKEN)"}
		slog.Error("access token missing", "err", err, "strict", cfg.StrictAuth())
	}

	store, err := cache.Open(cfg.Cache, timezone.Now)
	if err != nil {
		serviceutil.Fatal("open cache", err)
	}
	defer store.Close()

	tel := telemetry.NewSlogAPI(nil)
	services := app.InitServices(cfg, store, tel)

	cronner := chrono.NewStandardCron(tel)
	defer cronner.Stop()
	err = app.ScheduleJobs(cronner, cfg, store, services, tel)
	if err != nil {
		serviceutil.Fatal("schedule jobs", err)
	}
	if *warm {
		go services.Warm(ctx, cfg.WarmDepartments)
	}

	slog.Info("starting", "env", cfg.Env, "cache", cfg.Cache.Driver)
	err = serviceutil.StartHttpServer(
		ctx, cfg.Port,
		app.NewHandler(cfg, services),
		time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
	)
	if err != nil {
		slog.Error("http server", "err", err)
	}
}
