package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	Environment string

	APIBaseURL      string
	WSURL           string
	UpstreamTimeout time.Duration
	CacheTTL        time.Duration
	CORSOrigins     []string

	Realtime RealtimeConfig
	Events   EventConfig
}

// RealtimeConfig tunes the upstream chat and exam-status sockets
type RealtimeConfig struct {
	PingInterval     time.Duration
	PongTimeout      time.Duration
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
	ChatMaxRetries   int
	ExamMaxRetries   int
	ChatRate         float64
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		Environment: getEnv("ENVIRONMENT", "development"),

		APIBaseURL:      strings.TrimRight(getEnv("API_BASE_URL", getEnv("NEXT_PUBLIC_API_BASE_URL", "http://localhost:8000/api/v1")), "/"),
		WSURL:           strings.TrimRight(getEnv("WS_URL", getEnv("NEXT_PUBLIC_WS_URL", "ws://localhost:8000/ws")), "/"),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		CacheTTL:        getDuration("CACHE_TTL", 5*time.Minute),
		CORSOrigins:     getList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		Realtime: RealtimeConfig{
			PingInterval:     getDuration("WS_PING_INTERVAL", 25*time.Second),
			PongTimeout:      getDuration("WS_PONG_TIMEOUT", 10*time.Second),
			ReconnectInitial: getDuration("WS_RECONNECT_INITIAL", time.Second),
			ReconnectMax:     getDuration("WS_RECONNECT_MAX", 30*time.Second),
			ChatMaxRetries:   getInt("WS_CHAT_MAX_RETRIES", 10),
			ExamMaxRetries:   getInt("WS_EXAM_MAX_RETRIES", 10),
			ChatRate:         getFloat("WS_CHAT_RATE", 2),
		},

		Events: EventConfig{
			Enabled:      getBool("EVENTS_ENABLED", false),
			Publisher:    getEnv("EVENTS_PUBLISHER", "kafka"),
			KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
			Topic:        getEnv("EVENTS_TOPIC", "exam-sessions"),
		},
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL must not be empty")
	}
	if cfg.Realtime.PongTimeout <= 0 || cfg.Realtime.PingInterval <= 0 {
		return nil, errors.New("WS_PING_INTERVAL and WS_PONG_TIMEOUT must be positive")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getDuration accepts Go durations ("30s") or a bare number of seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
