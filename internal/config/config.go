// README: Config loader with env defaults for the data dir, store, sessions, and notification ticker.
package config

import (
	"os"
	"strconv"
)

type NotifyConfig struct {
	TickSeconds int
}

type Config struct {
	Data struct {
		Dir    string
		DBFile string
	}
	Session struct {
		TTLHours int
	}
	Notify   NotifyConfig
	SeedDemo bool
}

func Load() (Config, error) {
	var cfg Config
	cfg.Data.Dir = envOrDefault("NAVETTE_DATA_DIR", "./data")
	cfg.Data.DBFile = envOrDefault("NAVETTE_DB_PATH", "navette.db")
	cfg.Session.TTLHours = envOrDefaultInt("NAVETTE_SESSION_TTL_HOURS", 720)
	cfg.Notify.TickSeconds = envOrDefaultInt("NAVETTE_NOTIFY_TICK", 60)
	cfg.SeedDemo = envOrDefaultBool("NAVETTE_SEED_DEMO", false)
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
