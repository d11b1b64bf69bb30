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

// ResultRepository implements port.ResultStore using pgxpool. Every
// engagement mutation runs as one transaction that creates the row when
// absent, locks it, snapshots the pre-update state and applies a
// conditional update. The snapshot is taken under the row lock, so two
// concurrent duplicate hits cannot both observe a first occurrence.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository returns a new repository instance.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// RecordSent upserts the outcome of one send attempt. The statement never
// downgrades state written earlier by a tracking hit: booleans only turn
// on, timestamps keep their first value, and status is promoted only from
// pending.
func (r *ResultRepository) RecordSent(ctx context.Context, campaignID, targetID, orgID uuid.UUID, delivered bool, at time.Time) error {
	var sentAt *time.Time
	status := domain.StatusPending
	if delivered {
		sentAt = &at
		status = domain.StatusSent
	}
	_, err := r.pool.Exec(ctx, `
        INSERT INTO campaign_results (campaign_id, target_id, organization_id, sent, sent_at, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, now(), now())
        ON CONFLICT (campaign_id, target_id) DO UPDATE SET
            sent       = campaign_results.sent OR EXCLUDED.sent,
            sent_at    = COALESCE(campaign_results.sent_at, EXCLUDED.sent_at),
            status     = CASE
                             WHEN campaign_results.status = 'pending' AND EXCLUDED.sent THEN 'sent'
                             ELSE campaign_results.status
                         END,
            updated_at = now()`,
		campaignID, targetID, orgID, delivered, sentAt, status)
	return err
}

// RecordOpen marks the result opened on its first occurrence. Status is
// promoted only from pending or sent; clicked and submitted are never
// overwritten.
func (r *ResultRepository) RecordOpen(ctx context.Context, campaignID, targetID, orgID uuid.UUID, at time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var opened bool
	if opened, _, err = r.lockResult(ctx, tx, campaignID, targetID, orgID, "opened"); err != nil {
		return false, err
	}
	if opened {
		return false, nil
	}
	_, err = tx.Exec(ctx, `
        UPDATE campaign_results SET
            opened     = true,
            opened_at  = $3,
            status     = CASE WHEN status IN ('pending', 'sent') THEN 'opened' ELSE status END,
            updated_at = now()
        WHERE campaign_id = $1 AND target_id = $2`,
		campaignID, targetID, at)
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordClick marks the result clicked on its first occurrence. Status is
// promoted unless the result already reached the terminal submitted state.
func (r *ResultRepository) RecordClick(ctx context.Context, campaignID, targetID, orgID uuid.UUID, at time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var clicked bool
	if clicked, _, err = r.lockResult(ctx, tx, campaignID, targetID, orgID, "clicked"); err != nil {
		return false, err
	}
	if clicked {
		return false, nil
	}
	_, err = tx.Exec(ctx, `
        UPDATE campaign_results SET
            clicked    = true,
            clicked_at = $3,
            status     = CASE WHEN status <> 'submitted' THEN 'clicked' ELSE status END,
            updated_at = now()
        WHERE campaign_id = $1 AND target_id = $2`,
		campaignID, targetID, at)
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordSubmission moves the result into the terminal submitted state.
// The status update is unconditional, but timestamp and captured payload
// keep the values of the first submission.
func (r *ResultRepository) RecordSubmission(ctx context.Context, campaignID, targetID, orgID uuid.UUID, payload []byte, at time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var submitted bool
	if _, submitted, err = r.lockResult(ctx, tx, campaignID, targetID, orgID, "submitted"); err != nil {
		return false, err
	}
	_, err = tx.Exec(ctx, `
        UPDATE campaign_results SET
            submitted      = true,
            submitted_at   = COALESCE(submitted_at, $3),
            submitted_data = COALESCE(submitted_data, $4),
            status         = 'submitted',
            updated_at     = now()
        WHERE campaign_id = $1 AND target_id = $2`,
		campaignID, targetID, at, payload)
	if err != nil {
		return false, err
	}
	return !submitted, nil
}

// lockResult creates the row if it does not exist yet (a tracking hit can
// legitimately arrive before the send is recorded) and locks it, returning
// the pre-update value of the requested flag. The second return value is
// used by RecordSubmission, which needs the snapshot but updates
// unconditionally.
func (r *ResultRepository) lockResult(ctx context.Context, tx pgx.Tx, campaignID, targetID, orgID uuid.UUID, flag string) (bool, bool, error) {
	_, err := tx.Exec(ctx, `
        INSERT INTO campaign_results (campaign_id, target_id, organization_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, 'pending', now(), now())
        ON CONFLICT (campaign_id, target_id) DO NOTHING`,
		campaignID, targetID, orgID)
	if err != nil {
		return false, false, err
	}
	var set, submitted bool
	err = tx.QueryRow(ctx, `
        SELECT `+flag+`, submitted FROM campaign_results
        WHERE campaign_id = $1 AND target_id = $2
        FOR UPDATE`,
		campaignID, targetID).Scan(&set, &submitted)
	if err != nil {
		return false, false, err
	}
	return set, submitted, nil
}

// GetResult returns the engagement record for a pair, or nil when none
// exists yet.
func (r *ResultRepository) GetResult(ctx context.Context, campaignID, targetID uuid.UUID) (*domain.CampaignResult, error) {
	var res domain.CampaignResult
	err := r.pool.QueryRow(ctx, `
        SELECT campaign_id, target_id, organization_id,
               sent, sent_at, opened, opened_at, clicked, clicked_at,
               submitted, submitted_at, submitted_data, status, created_at, updated_at
        FROM campaign_results
        WHERE campaign_id = $1 AND target_id = $2`,
		campaignID, targetID).Scan(
		&res.CampaignID, &res.TargetID, &res.OrganizationID,
		&res.Sent, &res.SentAt, &res.Opened, &res.OpenedAt, &res.Clicked, &res.ClickedAt,
		&res.Submitted, &res.SubmittedAt, &res.SubmittedData, &res.Status, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
