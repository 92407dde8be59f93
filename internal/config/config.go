package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string
	JWTSecret  string
	FeedURL    string
	EchoWindow time.Duration
	LogLevel   string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "board_user"),
		DBPassword: getEnv("DB_PASSWORD", "board_pass"),
		DBName:     getEnv("DB_NAME", "board_db"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		JWTSecret:  getEnv("JWT_SECRET", "supersecretkey"),
		FeedURL:    getEnv("FEED_URL", "ws://localhost:8081/changes"),
		EchoWindow: getDurationMs("ECHO_WINDOW_MS", 3000),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getDurationMs(key string, defaultMs int) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
		log.Warnf("Invalid %s value %q, using default", key, value)
	}
	return time.Duration(defaultMs) * time.Millisecond
}
