package configs

import "time"

// Scheduler tunes the campaign polling loop. MaxFailures is the number of
// consecutive infrastructure failures after which the scheduler stops
// itself and waits for an operator restart.
type Scheduler struct {
	Interval    time.Duration `env:"INTERVAL" envDefault:"60s"`
	Backoff     time.Duration `env:"BACKOFF" envDefault:"10s"`
	MaxBackoff  time.Duration `env:"MAX_BACKOFF" envDefault:"5m"`
	MaxFailures int           `env:"MAX_FAILURES" envDefault:"5"`
}
