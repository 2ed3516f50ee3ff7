// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds process settings read from the environment.
type Config struct {
	Port             string
	DefaultRoomID    string
	RoundSettleDelay time.Duration
	OutboxSize       int

	LogLevel  string
	LogFormat string

	RedisAddr          string
	RedisDB            int
	HistorianQueueName string

	DatabaseURL        string
	HistorianBatchSize int
	HistorianFlush     time.Duration
	RoundInactivity    time.Duration
}

// Load reads the environment, falling back to defaults for unset or
// unparsable values.
func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8080"),
		DefaultRoomID:    getEnv("DEFAULT_ROOM_ID", "main"),
		RoundSettleDelay: getEnvDuration("ROUND_SETTLE_DELAY", 3*time.Second),
		OutboxSize:       getEnvInt("OUTBOX_SIZE", 32),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		HistorianQueueName: getEnv("HISTORIAN_QUEUE_NAME", "tienlen_actions"),

		DatabaseURL:        os.Getenv("DATABASE_URL"),
		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		RoundInactivity:    time.Duration(getEnvInt("ROUND_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
	}
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
