package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// Validate checks required fields for the selected store driver, the log
// level and numeric limits. All problems are reported together.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if cfg.Store.Postgres.URL == "" {
			errs = append(errs, "store.postgres.url is required for the postgres driver")
		}
	case DriverRedis:
		if cfg.Store.Redis.Addr == "" {
			errs = append(errs, "store.redis.addr is required for the redis driver")
		}
		if cfg.Store.Redis.TTL < 0 {
			errs = append(errs, "store.redis.ttl must not be negative")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of memory, postgres, redis", cfg.Store.Driver))
	}

	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q: %v", cfg.Log.Level, err))
	}
	if cfg.Server.MaxSessions < 0 {
		errs = append(errs, "server.max_sessions must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
