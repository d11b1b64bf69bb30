package configs

import "time"

// SMTP tunes campaign mail submission. Credentials are not configured
// here; they come from per-organization SMTP profiles in the database.
type SMTP struct {
	// SendTimeout bounds a single message submission so one hanging
	// server cannot stall the rest of a campaign.
	SendTimeout time.Duration `env:"SEND_TIMEOUT" envDefault:"30s"`
}
