package main

import (
	"os"
	"strconv"
	"time"
)

// Config is the process configuration, read once at boot. An empty
// DATABASE_URL selects the in-memory store; everything else has a working
// default.
type Config struct {
	Port         string
	DatabaseURL  string
	CatalogPath  string
	TickInterval time.Duration
	SeedDevData  bool
}

func LoadConfig() Config {
	return Config{
		Port:         envString("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		CatalogPath:  os.Getenv("BUILDINGS_FILE"),
		TickInterval: envDuration("TICK_INTERVAL_MS", time.Second),
		SeedDevData:  envFlag("SEED_DEV_DATA", false),
	}
}

func envString(name, fallback string) string {
	val := os.Getenv(name)
	if val == "" {
		return fallback
	}
	return val
}

func envFlag(name string, fallback bool) bool {
	val := os.Getenv(name)
	if val == "" {
		return fallback
	}
	return val == "true" || val == "1" || val == "yes"
}

func envDuration(name string, fallback time.Duration) time.Duration {
	val := os.Getenv(name)
	if val == "" {
		return fallback
	}
	ms, err := strconv.Atoi(val)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
