package domain

import "github.com/google/uuid"

// SMTPProfile holds organization-supplied mail-submission credentials. One
// profile is used for a campaign's entire send run.
type SMTPProfile struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Host           string
	Port           int
	Username       string
	Password       string
	FromName       string
	FromAddress    string
}
