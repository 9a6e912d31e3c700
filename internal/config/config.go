package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           string
	DatabaseURL    string
	StaticDir      string
	ReconnectGrace time.Duration
	RoomTTL        time.Duration
	SweepInterval  time.Duration
	WriteBuffer    int // outbound frames queued per connection
}

func Load() Config {
	cfg := Config{
		Port:           getEnv("PORT", "3000"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StaticDir:      getEnv("STATIC_DIR", "."),
		ReconnectGrace: getEnvDuration("RECONNECT_GRACE", 30*time.Second),
		RoomTTL:        getEnvDuration("ROOM_TTL", 3*time.Hour),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", 10*time.Minute),
		WriteBuffer:    getEnvInt("WS_WRITE_BUFFER", 64),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("30s", "3h"). Negative values fall back.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return fallback
}
