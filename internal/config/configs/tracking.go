package configs

// Tracking configures the public tracking surface embedded into outgoing
// mail. BaseURL is the externally reachable origin that rewritten links,
// the open pixel and form actions point at; it must not end with a slash.
type Tracking struct {
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`
}
