package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the indicator engine.
type Config struct {
	// Common
	Environment string
	LogLevel    string

	Engine  EngineConfig
	Feed    FeedConfig
	API     APIConfig
	Stream  StreamConfig
	Catalog CatalogConfig
}

// EngineConfig holds per-symbol computation configuration.
type EngineConfig struct {
	Symbols     []string
	BarInterval time.Duration // width of one bar
	MaxBars     int           // history cap per symbol, 0 = unbounded
	MinTick     float64       // price increment for display rounding
}

// FeedConfig holds market data feed configuration.
type FeedConfig struct {
	Provider          string // "synthetic", "replay" or "websocket"
	WebSocketURL      string
	ReplayPath        string
	TickInterval      time.Duration // synthetic tick rate
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

// APIConfig holds the diagnostics HTTP server configuration.
type APIConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StreamConfig holds the websocket fan-out configuration.
type StreamConfig struct {
	Port         int
	PingInterval time.Duration
	WriteTimeout time.Duration
	SendBuffer   int // per-client queued messages before the client is dropped
}

// CatalogConfig locates the indicator set definition file.
type CatalogConfig struct {
	Path string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Engine: EngineConfig{
			Symbols:     getEnvAsStringSlice("ENGINE_SYMBOLS", []string{"AAPL", "MSFT"}),
			BarInterval: getEnvAsDuration("ENGINE_BAR_INTERVAL", time.Minute),
			MaxBars:     getEnvAsInt("ENGINE_MAX_BARS", 5000),
			MinTick:     getEnvAsFloat("ENGINE_MIN_TICK", 0.01),
		},
		Feed: FeedConfig{
			Provider:          getEnv("FEED_PROVIDER", "synthetic"),
			WebSocketURL:      getEnv("FEED_WS_URL", ""),
			ReplayPath:        getEnv("FEED_REPLAY_PATH", ""),
			TickInterval:      getEnvAsDuration("FEED_TICK_INTERVAL", 250*time.Millisecond),
			ReconnectDelay:    getEnvAsDuration("FEED_RECONNECT_DELAY", 1*time.Second),
			MaxReconnectDelay: getEnvAsDuration("FEED_MAX_RECONNECT_DELAY", 30*time.Second),
		},
		API: APIConfig{
			Port:            getEnvAsInt("API_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("API_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("API_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("API_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Stream: StreamConfig{
			Port:         getEnvAsInt("STREAM_PORT", 8081),
			PingInterval: getEnvAsDuration("STREAM_PING_INTERVAL", 30*time.Second),
			WriteTimeout: getEnvAsDuration("STREAM_WRITE_TIMEOUT", 10*time.Second),
			SendBuffer:   getEnvAsInt("STREAM_SEND_BUFFER", 64),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", "catalog.yaml"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Engine.Symbols) == 0 {
		return fmt.Errorf("ENGINE_SYMBOLS must contain at least one symbol")
	}
	if c.Engine.BarInterval <= 0 {
		return fmt.Errorf("ENGINE_BAR_INTERVAL must be positive")
	}
	if c.Engine.MaxBars < 0 {
		return fmt.Errorf("ENGINE_MAX_BARS must not be negative")
	}
	if c.Engine.MinTick <= 0 {
		return fmt.Errorf("ENGINE_MIN_TICK must be positive")
	}
	switch c.Feed.Provider {
	case "synthetic":
	case "replay":
		if c.Feed.ReplayPath == "" {
			return fmt.Errorf("FEED_REPLAY_PATH is required for the replay provider")
		}
	case "websocket":
		if c.Feed.WebSocketURL == "" {
			return fmt.Errorf("FEED_WS_URL is required for the websocket provider")
		}
	default:
		return fmt.Errorf("unknown FEED_PROVIDER %q (want synthetic, replay or websocket)", c.Feed.Provider)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("API_PORT out of range: %d", c.API.Port)
	}
	if c.Stream.Port <= 0 || c.Stream.Port > 65535 {
		return fmt.Errorf("STREAM_PORT out of range: %d", c.Stream.Port)
	}
	if c.Stream.SendBuffer <= 0 {
		return fmt.Errorf("STREAM_SEND_BUFFER must be positive")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
