// Package app wires configuration, the cache, the scraping services and the http
// middleware into the api served by cmd/server.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unifeed-backend/lib/cache"
	"unifeed-backend/lib/departments"
	"unifeed-backend/lib/fetcher"
	"unifeed-backend/lib/httpx"
	"unifeed-backend/lib/telemetry"
	"unifeed-backend/lib/timezone"
	"unifeed-backend/services/academicstaff"
	"unifeed-backend/services/announcement"
	"unifeed-backend/services/bus"
	"unifeed-backend/services/food"
	"unifeed-backend/services/notices"
)

const (
	apiName    = "Siirt University API"
	apiVersion = "1.0.0"
)

type Services struct {
	Departments   departments.Registry
	Notices       notices.Service
	Announcement  announcement.Service
	AcademicStaff academicstaff.Service
	Bus           bus.Service
	Food          food.Service
}

func InitServices(cfg Config, store cache.Store, tel telemetry.API) Services {
	client := fetcher.NewClient(cfg.Fetch)
	registry := departments.New(cfg.Departments)
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second

	return Services{
		Departments: registry,
		Notices: notices.NewService(notices.Options{
			Fetcher:   client,
			Store:     store,
			Tel:       tel,
			SiteUrl:   cfg.Notices.SiteUrl,
			NewsUrl:   cfg.Notices.NewsUrl,
			EventsUrl: cfg.Notices.EventsUrl,
			TTL:       ttl,
		}),
		Announcement: announcement.NewService(announcement.Options{
			Fetcher:     client,
			Store:       store,
			Tel:         tel,
			Departments: registry,
			TTL:         ttl,
		}),
		AcademicStaff: academicstaff.NewService(academicstaff.Options{
			Fetcher:     client,
			Store:       store,
			Tel:         tel,
			Departments: registry,
			StaffPath:   cfg.AcademicStaff.StaffPath,
			TTL:         ttl,
		}),
		Bus: bus.NewService(bus.Options{
			Fetcher: client,
			Store:   store,
			Tel:     tel,
			Routes:  cfg.Bus.Routes,
			Aliases: cfg.Bus.Aliases,
			TTL:     ttl,
		}),
		Food: food.NewService(food.Options{
			Fetcher: client,
			Store:   store,
			Tel:     tel,
			MenuUrl: cfg.Food.MenuUrl,
			TTL:     ttl,
		}),
	}
}

// Warm refreshes every resource concurrently, departments lists which departments'
// announcements and staff are included.
func (s Services) Warm(ctx context.Context, departments []string) {
	start := time.Now()
	wg := sync.WaitGroup{}
	for _, warm := range []func(context.Context){
		s.Notices.Warm,
		s.Bus.Warm,
		s.Food.Warm,
		func(ctx context.Context) { s.Announcement.Warm(ctx, departments) },
		func(ctx context.Context) { s.AcademicStaff.Warm(ctx, departments) },
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			warm(ctx)
		}()
	}
	wg.Wait()
	slog.InfoContext(ctx, "caches warmed", "duration_ms", time.Since(start).Milliseconds())
}

type indexResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Env       string `json:"env"`
}

// NewHandler routes every resource and wraps the mux in the middleware chain.
func NewHandler(cfg Config, services Services) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, r, http.StatusOK, indexResponse{
			Name:    apiName,
			Version: apiVersion,
			Status:  "running",
		})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, r, http.StatusOK, healthResponse{
			Status:    "ok",
			Timestamp: timezone.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
			Env:       cfg.Env,
		})
	})

	services.Notices.RegisterRoutes(mux)
	services.Announcement.RegisterRoutes(mux)
	services.AcademicStaff.RegisterRoutes(mux)
	services.Bus.RegisterRoutes(mux)
	services.Food.RegisterRoutes(mux)

	middleware := []httpx.Middleware{
		httpx.RequestID,
		httpx.AccessLog,
		httpx.Recovery,
		httpx.CORS(cfg.CORS.AllowedOrigins),
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter := httpx.NewRateLimiter(
			cfg.RateLimit.RequestsPerSecond,
			cfg.RateLimit.Burst,
			cfg.RateLimit.TrustedProxies...,
		)
		middleware = append(middleware, limiter.Middleware)
	}
	middleware = append(middleware, httpx.BearerAuth(cfg.Auth.AccessToken, cfg.StrictAuth(), "/health"))

	return httpx.Chain(mux, middleware...)
}
