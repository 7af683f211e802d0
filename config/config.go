package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// MongoDB configuration. An empty MONGO_URI switches the console to
	// in-memory session storage (development only, state lost on restart).
	MongoURI     string
	DatabaseName string

	// Upstream REST backends
	AdminServerURL    string
	EmployeeServerURL string
	UpstreamTimeout   time.Duration

	// Development-only fallback credential for upstream calls carrying no
	// bearer token. Off by default; production sends no Authorization header
	// without a session token.
	DevFallback  bool
	FallbackUser string
	FallbackPass string

	// Session configuration
	SessionTTL time.Duration

	// Activity logger buffer size
	ActivityBuffer int

	// Server configuration
	Port string
}

func LoadConfig() *Config {
	// MONGO_URI set but empty selects in-memory session storage.
	mongoURI := "mongodb://localhost:27017"
	if value, ok := os.LookupEnv("MONGO_URI"); ok {
		mongoURI = value
	}

	cfg := &Config{
		MongoURI:          mongoURI,
		DatabaseName:      getEnv("MONGO_DB_NAME", "phone_console"),
		AdminServerURL:    getEnv("ADMIN_SERVER_URL", "http://localhost:5001"),
		EmployeeServerURL: getEnv("EMPLOYEE_SERVER_URL", "http://localhost:5002"),
		UpstreamTimeout:   time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,
		DevFallback:       getEnv("UPSTREAM_DEV_FALLBACK", "") == "true",
		FallbackUser:      os.Getenv("UPSTREAM_FALLBACK_USER"),
		FallbackPass:      os.Getenv("UPSTREAM_FALLBACK_PASS"),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		ActivityBuffer:    getEnvInt("ACTIVITY_BUFFER", 256),
		Port:              getEnv("PORT", "8080"),
	}

	if cfg.DevFallback && (cfg.FallbackUser == "" || cfg.FallbackPass == "") {
		slog.Warn("UPSTREAM_DEV_FALLBACK enabled without fallback credentials, ignoring")
		cfg.DevFallback = false
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("Invalid integer in environment", "key", key, "value", value)
	}
	return defaultValue
}
