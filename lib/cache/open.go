package cache

import (
	"fmt"
	"unifeed-backend/lib/timezone"
)

// Config picks the Store implementation.
type Config struct {
	// Driver is one of "memory" (default), "badger", "sqlite" or "libsql".
	Driver     string `json:"driver"`
	MaxEntries int    `json:"max_entries"`
	// Dir is the badger directory, empty means in-memory badger.
	Dir string    `json:"dir"`
	SQL SQLConfig `json:"sql"`
}

func Open(cfg Config, now timezone.Clock) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg.MaxEntries, now)
	case "badger":
		return OpenBadger(cfg.Dir)
	case "sqlite", "libsql":
		sqlCfg := cfg.SQL
		if cfg.Driver == "sqlite" {
			sqlCfg.Url = ""
		}
		return OpenSQL(sqlCfg, now)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
