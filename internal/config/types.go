package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Turso         TursoConfig
	Payments      PaymentsConfig
	Slack         SlackConfig
	ProjectID     string
	SweepInterval time.Duration
	// EnforceSkillLevel rejects joins outside the match's declared level
	// when set. Off by default.
	EnforceSkillLevel bool
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

type PaymentsConfig struct {
	BaseURL string
	APIKey  string
}

type SlackConfig struct {
	Token     string
	ChannelID string
}
