package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"phishsim/internal/core/domain"
)

// CampaignRepository implements port.CampaignStore using pgxpool. It is the
// read model fed by the external admin surface; the engine only mutates
// campaign status.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository returns a new repository instance.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

const campaignColumns = `id, organization_id, name, group_id, smtp_profile_id,
       email_template_id, landing_page_id, scheduled_at, status, created_at, updated_at`

func scanCampaign(row pgx.Row) (domain.Campaign, error) {
	var c domain.Campaign
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.GroupID, &c.SMTPProfileID,
		&c.TemplateID, &c.LandingPageID, &c.ScheduledAt, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetCampaign returns a campaign by id.
func (r *CampaignRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListDueCampaigns returns campaigns whose scheduled time has arrived and
// which have not been launched yet.
func (r *CampaignRepository) ListDueCampaigns(ctx context.Context, now time.Time) ([]domain.Campaign, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+campaignColumns+`
        FROM campaigns
        WHERE scheduled_at IS NOT NULL
          AND scheduled_at <= $1
          AND status IN ('Scheduled', 'Draft')
        ORDER BY scheduled_at`, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Campaign, error) {
		return scanCampaign(row)
	})
}

// ClaimCampaign atomically marks a campaign Active. The status guard in the
// WHERE clause makes the claim exclusive: a second caller sees zero rows
// affected and skips the campaign.
func (r *CampaignRepository) ClaimCampaign(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE campaigns SET status = 'Active', updated_at = now()
        WHERE id = $1 AND status IN ('Scheduled', 'Draft')`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetCampaignStatus unconditionally updates the campaign status.
func (r *CampaignRepository) SetCampaignStatus(ctx context.Context, id uuid.UUID, status domain.CampaignStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE campaigns SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

// GetTemplate returns an email template by id.
func (r *CampaignRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*domain.EmailTemplate, error) {
	var t domain.EmailTemplate
	err := r.pool.QueryRow(ctx, `
        SELECT id, organization_id, name, subject, html
        FROM email_templates WHERE id = $1`, id).
		Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Subject, &t.HTML)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetLandingPage returns a landing page by id.
func (r *CampaignRepository) GetLandingPage(ctx context.Context, id uuid.UUID) (*domain.LandingPage, error) {
	var p domain.LandingPage
	err := r.pool.QueryRow(ctx, `
        SELECT id, organization_id, name, html, capture_data, capture_passwords, COALESCE(redirect_url, '')
        FROM landing_pages WHERE id = $1`, id).
		Scan(&p.ID, &p.OrganizationID, &p.Name, &p.HTML, &p.CaptureData, &p.CapturePasswords, &p.RedirectURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetSMTPProfile returns an SMTP profile by id.
func (r *CampaignRepository) GetSMTPProfile(ctx context.Context, id uuid.UUID) (*domain.SMTPProfile, error) {
	var p domain.SMTPProfile
	err := r.pool.QueryRow(ctx, `
        SELECT id, organization_id, host, port, username, password, from_name, from_address
        FROM smtp_profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.OrganizationID, &p.Host, &p.Port, &p.Username, &p.Password, &p.FromName, &p.FromAddress)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetTarget returns a target by id.
func (r *CampaignRepository) GetTarget(ctx context.Context, id uuid.UUID) (*domain.Target, error) {
	var t domain.Target
	err := r.pool.QueryRow(ctx, `
        SELECT id, organization_id, group_id, email, first_name, last_name
        FROM targets WHERE id = $1`, id).
		Scan(&t.ID, &t.OrganizationID, &t.GroupID, &t.Email, &t.FirstName, &t.LastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTargets returns every target in a group.
func (r *CampaignRepository) ListTargets(ctx context.Context, groupID uuid.UUID) ([]domain.Target, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, organization_id, group_id, email, first_name, last_name
        FROM targets WHERE group_id = $1 ORDER BY email`, groupID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Target, error) {
		var t domain.Target
		err := row.Scan(&t.ID, &t.OrganizationID, &t.GroupID, &t.Email, &t.FirstName, &t.LastName)
		return t, err
	})
}

// ListOrgAdmins returns the ids of admin users in an organization.
func (r *CampaignRepository) ListOrgAdmins(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM users WHERE organization_id = $1 AND role = 'admin'`, orgID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (uuid.UUID, error) {
		var id uuid.UUID
		err := row.Scan(&id)
		return id, err
	})
}
