package domain

import "github.com/google/uuid"

// Target is a simulated-phishing recipient. Targets are immutable from the
// engine's point of view; only the external admin surface mutates them.
type Target struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	GroupID        uuid.UUID
	Email          string
	FirstName      string
	LastName       string
}
