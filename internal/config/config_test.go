package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"TELEGRAM_TOKEN": " token "}))
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, "daily_review.db", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval)
	assert.Equal(t, "21:00", cfg.ReviewReminderAt)
	assert.Equal(t, time.Local, cfg.Location)
	assert.NotEmpty(t, cfg.AnthropicModel)
	assert.Empty(t, cfg.AnthropicAPIKey)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"TELEGRAM_TOKEN":        "token",
		"DATABASE_URL":          "data/review.db",
		"REPORT_INTERVAL_HOURS": "1.5",
		"REVIEW_REMINDER_AT":    "20:15",
		"TIMEZONE":              "UTC",
		"ANTHROPIC_MODEL":       "claude-sonnet-4-5",
	}))
	require.NoError(t, err)
	assert.Equal(t, "data/review.db", cfg.DatabaseURL)
	assert.Equal(t, 90*time.Minute, cfg.ReportInterval)
	assert.Equal(t, "20:15", cfg.ReviewReminderAt)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, "claude-sonnet-4-5", cfg.AnthropicModel)
}

func TestFromEnvErrors(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{}))
	assert.Error(t, err)

	_, err = FromEnv(envOf(map[string]string{"TELEGRAM_TOKEN": "t", "REVIEW_REMINDER_AT": "25:00"}))
	assert.Error(t, err)

	_, err = FromEnv(envOf(map[string]string{"TELEGRAM_TOKEN": "t", "TIMEZONE": "Mars/Olympus"}))
	assert.Error(t, err)

	cfg, err := FromEnv(envOf(map[string]string{"TELEGRAM_TOKEN": "t", "REPORT_INTERVAL_HOURS": "-2"}))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval)
}
