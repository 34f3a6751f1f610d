package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"unifeed-backend/lib/cache"
	"unifeed-backend/lib/configutil"
	"unifeed-backend/lib/fetcher"
	"unifeed-backend/lib/telemetry"
)

type AuthConfig struct {
	AccessToken string `json:"access_token"`
	// Strict rejects every gated request with 500 when no access token is configured,
	// defaults to true.
	Strict *bool `json:"strict"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

// RateLimitConfig is disabled when RequestsPerSecond is 0.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	// TrustedProxies lists addresses or CIDR ranges whose X-Forwarded-For is honored.
	TrustedProxies []string `json:"trusted_proxies"`
}

type NoticesConfig struct {
	SiteUrl   string `json:"site_url"`
	NewsUrl   string `json:"news_url"`
	EventsUrl string `json:"events_url"`
}

type AcademicStaffConfig struct {
	StaffPath string `json:"staff_path"`
}

type BusConfig struct {
	Routes  []string          `json:"routes"`
	Aliases map[string]string `json:"aliases"`
}

type FoodConfig struct {
	MenuUrl string `json:"menu_url"`
}

type Config struct {
	Port                   int                 `json:"port"`
	Env                    string              `json:"env"`
	ShutdownTimeoutSeconds int                 `json:"shutdown_timeout_seconds"`
	Auth                   AuthConfig          `json:"auth"`
	CORS                   CORSConfig          `json:"cors"`
	RateLimit              RateLimitConfig     `json:"rate_limit"`
	Log                    telemetry.LogConfig `json:"log"`
	Cache                  cache.Config        `json:"cache"`
	CacheTTLSeconds        int                 `json:"cache_ttl_seconds"`
	Fetch                  fetcher.Config      `json:"fetch"`
	// WarmCron is a cron spec, when set every resource is refreshed on that schedule.
	WarmCron        string   `json:"warm_cron"`
	WarmDepartments []string `json:"warm_departments"`
	// SweepCron schedules removal of expired rows for stores that keep them (sqlite, libsql).
	SweepCron     string              `json:"sweep_cron"`
	Departments   map[string]string   `json:"departments"`
	Notices       NoticesConfig       `json:"notices"`
	AcademicStaff AcademicStaffConfig `json:"academic_staff"`
	Bus           BusConfig           `json:"bus"`
	Food          FoodConfig          `json:"food"`
}

func (c Config) StrictAuth() bool {
	return c.Auth.Strict == nil || *c.Auth.Strict
}

func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = 3000
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = 10
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = 3600
	}
	if c.SweepCron == "" {
		c.SweepCron = "@hourly"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Notices.SiteUrl == "" {
		c.Notices.SiteUrl = "https://siirt.edu.tr/"
	}
}

// LoadConfig reads config.json5 (merged with config.local.json5) and applies the
// environment on top: PORT, API_TOKEN and APP_ENV, optionally from a .env file.
// A missing config file is not an error, defaults are used instead.
func LoadConfig(name string) (Config, error) {
	err := configutil.LoadDotenv(".env", ".env.local")
	if err != nil {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	cfg, err := configutil.ReadConfig[Config](name)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no config file found, using defaults", "name", name)
	} else if err != nil {
		return Config{}, err
	}

	configutil.EnvString(&cfg.Auth.AccessToken, "API_TOKEN")
	configutil.EnvString(&cfg.Env, "APP_ENV")
	port := ""
	configutil.EnvString(&port, "PORT")
	if port != "" {
		cfg.Port, err = strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("PORT: %w", err)
		}
	}

	cfg.SetDefaults()
	return cfg, nil
}
