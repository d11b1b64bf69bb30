package port

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a campaign, target or content source does
// not exist or belongs to another organization.
var ErrNotFound = errors.New("not found")

// ErrInvalidRedirectURL is returned by click handling when the u parameter
// is undecodable or decodes to a non-http(s) URL. No state is mutated in
// that case.
var ErrInvalidRedirectURL = errors.New("invalid redirect url")

// Tracker is the primary inbound port behind the public tracking surface.
// All operations are idempotent and safe under concurrent duplicate hits.
type Tracker interface {
	// TrackOpen records an open-pixel fetch. The HTTP layer serves the
	// pixel regardless of the returned error.
	TrackOpen(ctx context.Context, campaignID, targetID uuid.UUID) error

	// TrackClick validates and decodes the base64url-encoded original URL,
	// records the click, and returns the redirect destination. An invalid
	// URL returns ErrInvalidRedirectURL without mutating state.
	TrackClick(ctx context.Context, campaignID, targetID uuid.UUID, encodedURL string) (string, error)

	// RenderLanding returns the landing page HTML for a recipient, with
	// tokens substituted, links and forms rewritten, and the open pixel
	// injected.
	RenderLanding(ctx context.Context, campaignID, targetID uuid.UUID) (string, error)

	// TrackSubmission records a form POST, filtering the payload by the
	// landing page's capture flags. It returns the landing page's redirect
	// URL, or "" when none is configured.
	TrackSubmission(ctx context.Context, campaignID, targetID uuid.UUID, form url.Values) (string, error)
}

// DispatchSummary reports a completed campaign run.
type DispatchSummary struct {
	Sent  int `json:"sent"`
	Total int `json:"total"`
}

// Dispatcher renders and sends a campaign's email to every target in its
// group, recording per-target outcomes. A failure for one target never
// aborts the remaining targets.
type Dispatcher interface {
	Run(ctx context.Context, campaignID, organizationID uuid.UUID) (DispatchSummary, error)
}
