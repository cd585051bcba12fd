package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           string
	PostgresURL    string
	RedisAddr      string
	HoldTTL        time.Duration
	ReaperInterval time.Duration
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:           port,
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		HoldTTL:        readDurationSeconds("HOLD_TTL_SECONDS", 900),
		ReaperInterval: readDurationSeconds("REAPER_INTERVAL_SECONDS", 60),
	}
}

func readDurationSeconds(key string, fallback int) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback) * time.Second
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return time.Duration(fallback) * time.Second
	}
	return time.Duration(value) * time.Second
}
