package bootstrap

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddr string

	UpstreamURL    string
	UpstreamAPIKey string
	RealtimeModel  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		UpstreamURL:    getEnv("REALTIME_UPSTREAM_URL", "https://api.openai.com/v1/realtime"),
		UpstreamAPIKey: getEnv("REALTIME_API_KEY", ""),
		RealtimeModel:  getEnv("REALTIME_MODEL", "gpt-4o-realtime-preview"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		SessionTTL: time.Duration(getEnvInt("SESSION_TTL_SECONDS", 600)) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
