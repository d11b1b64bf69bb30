package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"phishsim/internal/core/domain"
)

// CampaignStore is the read model consumed from the external admin surface:
// campaigns, their content sources, targets and organization admins.
// Implementations return (nil, nil) for missing entities so callers can
// distinguish absence from infrastructure failure.
type CampaignStore interface {
	// GetCampaign returns a campaign by id, or nil when it does not exist.
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)

	// ListDueCampaigns returns campaigns whose scheduled time has arrived
	// (scheduled_at is non-null and <= now) and whose status still allows
	// launching (Scheduled or Draft).
	ListDueCampaigns(ctx context.Context, now time.Time) ([]domain.Campaign, error)

	// ClaimCampaign atomically moves a campaign from Scheduled/Draft to
	// Active. It reports false when the campaign was already claimed, which
	// prevents duplicate pickup when a dispatch outlives a poll interval.
	ClaimCampaign(ctx context.Context, id uuid.UUID) (bool, error)

	// SetCampaignStatus unconditionally updates the campaign status.
	SetCampaignStatus(ctx context.Context, id uuid.UUID, status domain.CampaignStatus) error

	// GetTemplate returns an email template by id, or nil when missing.
	GetTemplate(ctx context.Context, id uuid.UUID) (*domain.EmailTemplate, error)

	// GetLandingPage returns a landing page by id, or nil when missing.
	GetLandingPage(ctx context.Context, id uuid.UUID) (*domain.LandingPage, error)

	// GetSMTPProfile returns an SMTP profile by id, or nil when missing.
	GetSMTPProfile(ctx context.Context, id uuid.UUID) (*domain.SMTPProfile, error)

	// GetTarget returns a target by id, or nil when missing.
	GetTarget(ctx context.Context, id uuid.UUID) (*domain.Target, error)

	// ListTargets returns every target in a group.
	ListTargets(ctx context.Context, groupID uuid.UUID) ([]domain.Target, error)

	// ListOrgAdmins returns the user ids that receive notifications for an
	// organization.
	ListOrgAdmins(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error)
}
