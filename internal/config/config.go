package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}
	getEnvOr := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		return fallback
	}

	sweepInterval, err := time.ParseDuration(getEnvOr("SWEEP_INTERVAL", "1m"))
	if err != nil {
		log.Fatalf("Error: invalid SWEEP_INTERVAL: %s", err)
	}
	enforceLevel, _ := strconv.ParseBool(getEnvOr("ENFORCE_SKILL_LEVEL", "false"))

	cfg := Config{
		DBName:        getEnv("DB_NAME"),
		MigrationsDir: getEnvOr("MIGRATIONS_DIR", "./migrations"),
		Port:          getEnv("PORT"),
		Turso: TursoConfig{
			PrimaryURL: getEnvOr("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnvOr("TURSO_AUTH_TOKEN", ""),
		},
		Payments: PaymentsConfig{
			BaseURL: getEnvOr("PAYMENTS_BASE_URL", ""),
			APIKey:  getEnvOr("PAYMENTS_API_KEY", ""),
		},
		Slack: SlackConfig{
			Token:     getEnvOr("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnvOr("SLACK_CHANNEL_ID", ""),
		},
		ProjectID:         getEnvOr("GCP_PROJECT", ""),
		SweepInterval:     sweepInterval,
		EnforceSkillLevel: enforceLevel,
	}
	return cfg
}
