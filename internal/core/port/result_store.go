package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"phishsim/internal/core/domain"
)

// ResultStore persists per-(campaign, target) engagement records. All
// coordination between the tracking endpoints and the Dispatcher happens
// through these rows, so every mutation must be a single atomic
// read-modify-write: implementations lock the row (creating it first when
// absent), snapshot the pre-update state, then apply conditional updates.
// The "first" return values are computed from that locked snapshot, which is
// what makes first-occurrence notifications race-free under concurrent
// duplicate hits.
type ResultStore interface {
	// RecordSent upserts the result for a send attempt. A delivered send
	// sets sent=true with a timestamp and promotes status from pending to
	// sent; a failed send creates (or leaves) the record as pending. A
	// tracking hit that arrived before the send is never downgraded.
	RecordSent(ctx context.Context, campaignID, targetID, orgID uuid.UUID, delivered bool, at time.Time) error

	// RecordOpen marks the result opened. Only the first call sets the
	// timestamp and reports first=true; status is promoted to opened only
	// from pending or sent.
	RecordOpen(ctx context.Context, campaignID, targetID, orgID uuid.UUID, at time.Time) (first bool, err error)

	// RecordClick marks the result clicked. Only the first call sets the
	// timestamp and reports first=true; status is promoted to clicked
	// unless the result is already submitted.
	RecordClick(ctx context.Context, campaignID, targetID, orgID uuid.UUID, at time.Time) (first bool, err error)

	// RecordSubmission marks the result submitted, the terminal state.
	// Timestamp and payload keep the values of the first submission;
	// repeats report first=false. A nil payload records the event without
	// capturing data.
	RecordSubmission(ctx context.Context, campaignID, targetID, orgID uuid.UUID, payload []byte, at time.Time) (first bool, err error)

	// GetResult returns the result for a pair, or nil when none exists.
	GetResult(ctx context.Context, campaignID, targetID uuid.UUID) (*domain.CampaignResult, error)
}
