package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	LineChannelSecret      string
	LineChannelAccessToken string
	LineAPIBaseURL         string
	LineDataAPIBaseURL     string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	// TranscriptMaxChars bounds the persisted transcript length.
	// 0 keeps the transcript unbounded within its TTL window.
	TranscriptMaxChars int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineAPIBaseURL:         getEnv("LINE_API_BASE_URL", ""),
		LineDataAPIBaseURL:     getEnv("LINE_DATA_API_BASE_URL", ""),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		TranscriptMaxChars: getEnvAsInt("TRANSCRIPT_MAX_CHARS", 0),
	}
}

// Validate checks that every credential the relay cannot run without is set.
// Called once at startup; there is no runtime reconfiguration.
func (c *Config) Validate() error {
	if c.LineChannelSecret == "" {
		return errors.New("config: LINE_CHANNEL_SECRET is required")
	}
	if c.LineChannelAccessToken == "" {
		return errors.New("config: LINE_CHANNEL_ACCESS_TOKEN is required")
	}
	if c.OpenAIAPIKey == "" {
		return errors.New("config: OPENAI_API_KEY is required")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
