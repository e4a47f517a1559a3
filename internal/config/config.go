package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Rag     RagConfig
	Store   StoreConfig
	Poll    PollConfig
	Keys    APIKeys
	Observe ObserveConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	DownloadDir        string
	NotificationTopic  string
}

type RagConfig struct {
	BaseURL string
	Timeout time.Duration
}

type StoreConfig struct {
	Backend string // "file", "bolt", "redis" or "memory"
	Path    string
}

type PollConfig struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
}

type APIKeys struct {
	JwtSecret string // empty disables auth on the local API
}

type ObserveConfig struct {
	OtelEnabled bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/pdf-chat.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			DownloadDir:        getEnv("DOWNLOAD_DIR", "downloads"),
			NotificationTopic:  getEnv("NOTIFICATION_TOPIC", "WORKSPACE_NOTIFICATIONS"),
		},
		Rag: RagConfig{
			BaseURL: getEnv("RAG_API_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("RAG_API_TIMEOUT", 120*time.Second),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "file"),
			Path:    getEnv("STORE_PATH", "data"),
		},
		Poll: PollConfig{
			InitialDelay: getEnvAsDuration("POLL_INITIAL_DELAY", 5*time.Second),
			Interval:     getEnvAsDuration("POLL_INTERVAL", 10*time.Second),
			MaxAttempts:  getEnvAsInt("POLL_MAX_ATTEMPTS", 30),
		},
		Keys: APIKeys{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Observe: ObserveConfig{
			OtelEnabled: getEnvAsBool("OTEL_ENABLED", false),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("10s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
