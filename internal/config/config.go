package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port             string
	APIKey           string
	DatabaseURL      string
	RedisURL         string
	PredictionAPIURL string

	FetchMinIntervalMs int
	FetchTimeoutSecs   int
	FetchMaxRetries    int
	HistoryCacheSecs   int
	WarmPollSecs       int

	TelegramBotToken string
	OpenAIAPIKey     string
	OpenAIModel      string

	SSHBind string
	SSHPort int

	TracingEnabled bool
}

func Load() *Config {
	cfg := &Config{
		APIKey:           os.Getenv("API_KEY"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		PredictionAPIURL: strings.TrimSpace(os.Getenv("PREDICTION_API_URL")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
	}

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, forecasts will not be persisted")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.PredictionAPIURL == "" {
		log.Println("Warning: PREDICTION_API_URL not set, backend source disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, bot disabled")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, advisor will use templated summaries")
	}

	cfg.FetchMinIntervalMs = 1000
	if v := strings.TrimSpace(os.Getenv("FETCH_MIN_INTERVAL_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchMinIntervalMs = n
		}
	}

	// Upstream APIs get sluggish under load; anything past 8s is treated
	// as a dead source rather than waited on.
	cfg.FetchTimeoutSecs = 5
	if v := strings.TrimSpace(os.Getenv("FETCH_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if n > 8 {
				n = 8
			}
			cfg.FetchTimeoutSecs = n
		}
	}

	cfg.FetchMaxRetries = 3
	if v := strings.TrimSpace(os.Getenv("FETCH_MAX_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.FetchMaxRetries = n
		}
	}

	cfg.HistoryCacheSecs = 60
	if v := strings.TrimSpace(os.Getenv("HISTORY_CACHE_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryCacheSecs = n
		}
	}

	cfg.WarmPollSecs = 300
	if v := strings.TrimSpace(os.Getenv("WARM_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WarmPollSecs = n
		}
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.SSHBind = strings.TrimSpace(os.Getenv("SSH_BIND"))
	if cfg.SSHBind == "" {
		cfg.SSHBind = "0.0.0.0"
	}

	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHPort = n
		}
	}

	cfg.TracingEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "true")

	return cfg
}
