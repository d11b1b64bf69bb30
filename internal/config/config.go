package config

import (
	"github.com/caarlos0/env/v11"

	"phishsim/internal/config/configs"
)

// Config aggregates all configuration sections for the engine. Fields are
// populated from environment variables using the caarlos0/env library; the
// nested structs are tagged with envPrefix so their fields are parsed with
// the given prefix. See the individual types in the configs package for
// default values. Use Load to construct a Config.
type Config struct {
	// Env specifies the deployment environment (e.g. prod, dev).
	Env string `env:"ENV" envDefault:"prod"`

	// HTTP holds configuration for the public tracking server.
	HTTP configs.HTTP `envPrefix:"HTTP_"`

	// Log configures the structured logger.
	Log configs.Logger `envPrefix:"LOG_"`

	// Psql configures the PostgreSQL connection.
	Psql configs.Postgres `envPrefix:"PSQL_"`

	// Tracking configures the public base URL rewritten into mail.
	Tracking configs.Tracking `envPrefix:"TRACKING_"`

	// Scheduler tunes the campaign polling loop.
	Scheduler configs.Scheduler `envPrefix:"SCHEDULER_"`

	// SMTP tunes campaign mail submission.
	SMTP configs.SMTP `envPrefix:"SMTP_"`

	// AMQP configures the notification broker connection.
	AMQP configs.AMQP `envPrefix:"AMQP_"`
}

// Load reads configuration from environment variables into a Config. If
// parsing fails, an error is returned. All fields are loaded with their
// specified defaults when no environment variable is provided.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
