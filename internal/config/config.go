package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	AnalyticsCacheTTL time.Duration
	AIProvider        string
	OllamaURL         string
	OllamaModel       string
	OpenAIBaseURL     string
	OpenAIAPIKey      string
	OpenAIModel       string
	AITimeout         time.Duration
	AIMaxRetries      int
	AIBackoff         time.Duration
	GenerateRateLimit int
	SeedEnabled       bool
	SeedToken         string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// GradeJobBudget returns the wall-clock budget for one background grading
// job. The AI timeout applies per attempt, so the job must outlive every
// retry plus the exponential backoff slept between attempts.
func (c Config) GradeJobBudget() time.Duration {
	budget := time.Duration(c.AIMaxRetries+1) * c.AITimeout

	backoff := c.AIBackoff
	for i := 0; i < c.AIMaxRetries; i++ {
		budget += backoff
		backoff *= 2
	}

	return budget
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GURU")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GURU API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("analytics.cache_ttl", "5m")
	v.SetDefault("ai.provider", "ollama")
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3:8b")
	v.SetDefault("ai.timeout_ms", 120000)
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.backoff_ms", 500)
	v.SetDefault("generate.rate_limit", 10)

	ttlString := v.GetString("analytics.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid analytics cache ttl: %w", err)
	}

	timeoutMs := v.GetInt("ai.timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 120000
	}

	backoffMs := v.GetInt("ai.backoff_ms")
	if backoffMs <= 0 {
		backoffMs = 500
	}

	maxRetries := v.GetInt("ai.max_retries")
	if maxRetries < 0 {
		maxRetries = 0
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		AnalyticsCacheTTL: ttl,
		AIProvider:        strings.ToLower(v.GetString("ai.provider")),
		OllamaURL:         v.GetString("ollama.url"),
		OllamaModel:       v.GetString("ollama.model"),
		OpenAIBaseURL:     v.GetString("openai.base_url"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		OpenAIModel:       v.GetString("openai.model"),
		AITimeout:         time.Duration(timeoutMs) * time.Millisecond,
		AIMaxRetries:      maxRetries,
		AIBackoff:         time.Duration(backoffMs) * time.Millisecond,
		GenerateRateLimit: v.GetInt("generate.rate_limit"),
		SeedEnabled:       v.GetBool("seed.enabled"),
		SeedToken:         v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided when ai provider is openai")
	}

	return cfg, nil
}
