package domain

import "github.com/google/uuid"

// EmailTemplate is a read-only content source for campaign emails. HTML may
// contain placeholder tokens such as {{FirstName}} and {{TrackingURL}}.
type EmailTemplate struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Subject        string
	HTML           string
}

// LandingPage is a read-only cloned page served to recipients who follow a
// tracked link. CaptureData controls whether submitted form payloads are
// persisted at all; CapturePasswords controls whether password-like fields
// survive filtering. RedirectURL, when set, is where the recipient is sent
// after submitting the form.
type LandingPage struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	Name             string
	HTML             string
	CaptureData      bool
	CapturePasswords bool
	RedirectURL      string
}
