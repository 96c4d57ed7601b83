package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"daily-review/internal/assistant"
	"daily-review/internal/service"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken    string
	DatabaseURL      string
	ReportInterval   time.Duration
	ReviewReminderAt string
	Location         *time.Location
	AnthropicAPIKey  string
	AnthropicModel   string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first if present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[info] no .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv-style lookup.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		TelegramToken:    get("TELEGRAM_TOKEN"),
		DatabaseURL:      get("DATABASE_URL"),
		ReportInterval:   parseInterval(get("REPORT_INTERVAL_HOURS")),
		ReviewReminderAt: get("REVIEW_REMINDER_AT"),
		AnthropicAPIKey:  get("ANTHROPIC_API_KEY"),
		AnthropicModel:   get("ANTHROPIC_MODEL"),
		Location:         time.Local,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "daily_review.db"
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	if cfg.ReviewReminderAt == "" {
		cfg.ReviewReminderAt = "21:00"
	}
	if _, _, err := service.ParseClock(cfg.ReviewReminderAt); err != nil {
		return cfg, fmt.Errorf("REVIEW_REMINDER_AT: %w", err)
	}

	if cfg.AnthropicModel == "" {
		cfg.AnthropicModel = assistant.DefaultModel
	}

	if tz := get("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
