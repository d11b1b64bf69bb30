package domain

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the lifecycle state of a campaign. The Scheduler moves
// due campaigns from Scheduled/Draft into Active; the Dispatcher marks them
// Completed once every target has been processed.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "Draft"
	CampaignScheduled CampaignStatus = "Scheduled"
	CampaignActive    CampaignStatus = "Active"
	CampaignCompleted CampaignStatus = "Completed"
)

// Campaign represents one phishing-simulation send run against a target
// group. ScheduledAt is nil for campaigns launched manually.
type Campaign struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	GroupID        uuid.UUID
	SMTPProfileID  uuid.UUID
	TemplateID     uuid.UUID
	LandingPageID  uuid.UUID
	ScheduledAt    *time.Time
	Status         CampaignStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
