package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries everything the server needs from the environment.
type Config struct {
	ServerPort   string
	SnapshotPath string
	DatabaseURL  string
	NatsURL      string
	RedisAddr    string
	JWTSecret    string
	JWTExpiry    time.Duration
	AutosaveSpec string
	Env          string
}

// Load reads an optional .env file, then the environment. Every field
// has a development default; DATABASE_URL, NATS_URL, and REDIS_ADDR are
// opt-in and empty by default.
func Load(logger *logrus.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, relying on environment variables")
	}

	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		SnapshotPath: getEnv("SNAPSHOT_PATH", "./data/accounts.json"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		NatsURL:      getEnv("NATS_URL", ""),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		JWTSecret:    getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTExpiry:    getDuration(logger, "JWT_EXPIRY", 15*time.Minute),
		AutosaveSpec: getEnv("AUTOSAVE_SPEC", "@every 5m"),
		Env:          getEnv("ENV", "development"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(logger *logrus.Logger, key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		logger.WithField(key, val).Warn("invalid duration, using default")
		return fallback
	}
	return d
}
