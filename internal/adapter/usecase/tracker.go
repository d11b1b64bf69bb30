package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"

	"phishsim/internal/core/domain"
	"phishsim/internal/core/port"
	"phishsim/internal/core/rewrite"
)

// passwordFieldRe matches form field names that must be dropped when the
// landing page does not capture passwords.
var passwordFieldRe = regexp.MustCompile(`(?i)(password|passwd|pwd|secret)`)

// Tracker implements port.Tracker: the state machine behind the public
// open-pixel, click-redirect and form-submission endpoints. All state lives
// in the ResultStore; the Tracker itself is stateless and safe for
// concurrent use.
type Tracker struct {
	campaigns port.CampaignStore
	results   port.ResultStore
	notifier  port.Notifier
	rewriter  *rewrite.Rewriter
	logger    *slog.Logger
}

// NewTracker creates the tracker usecase.
func NewTracker(campaigns port.CampaignStore, results port.ResultStore, notifier port.Notifier, rewriter *rewrite.Rewriter, logger *slog.Logger) *Tracker {
	return &Tracker{
		campaigns: campaigns,
		results:   results,
		notifier:  notifier,
		rewriter:  rewriter,
		logger:    logger,
	}
}

// lookup resolves the campaign and target for a tracking hit. A missing
// entity or a cross-organization pair maps to ErrNotFound; nothing is
// mutated in that case.
func (t *Tracker) lookup(ctx context.Context, campaignID, targetID uuid.UUID) (*domain.Campaign, *domain.Target, error) {
	camp, err := t.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if camp == nil {
		return nil, nil, fmt.Errorf("campaign %s: %w", campaignID, port.ErrNotFound)
	}
	target, err := t.campaigns.GetTarget(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	if target == nil || target.OrganizationID != camp.OrganizationID {
		return nil, nil, fmt.Errorf("target %s: %w", targetID, port.ErrNotFound)
	}
	return camp, target, nil
}

// TrackOpen records an open-pixel fetch. Only the first occurrence sets the
// opened timestamp and fans out a notification; repeats (mail-client image
// prefetch, bots) are no-ops.
func (t *Tracker) TrackOpen(ctx context.Context, campaignID, targetID uuid.UUID) error {
	camp, target, err := t.lookup(ctx, campaignID, targetID)
	if err != nil {
		return err
	}
	first, err := t.results.RecordOpen(ctx, campaignID, targetID, camp.OrganizationID, time.Now().UTC())
	if err != nil {
		return err
	}
	if first {
		t.notifyAdmins(ctx, camp, domain.Notification{
			OrganizationID: camp.OrganizationID,
			Type:           domain.NotifyEmailOpened,
			Title:          "Email opened",
			Message:        fmt.Sprintf("%s opened the email for campaign %q", target.Email, camp.Name),
			Priority:       "normal",
			ActionURL:      "/campaigns/" + camp.ID.String(),
			Metadata:       pairMetadata(campaignID, targetID),
		})
	}
	return nil
}

// TrackClick validates the encoded destination before touching any state,
// records the click and returns the redirect URL. Bookkeeping failures
// after validation are logged but do not block the redirect.
func (t *Tracker) TrackClick(ctx context.Context, campaignID, targetID uuid.UUID, encodedURL string) (string, error) {
	dest, err := decodeClickURL(encodedURL)
	if err != nil {
		return "", err
	}
	camp, target, err := t.lookup(ctx, campaignID, targetID)
	if err != nil {
		return "", err
	}
	first, err := t.results.RecordClick(ctx, campaignID, targetID, camp.OrganizationID, time.Now().UTC())
	if err != nil {
		t.logger.Error("click bookkeeping failed",
			slog.String("campaign_id", campaignID.String()),
			slog.String("target_id", targetID.String()),
			slog.Any("error", err))
		return dest, nil
	}
	if first {
		t.notifyAdmins(ctx, camp, domain.Notification{
			OrganizationID: camp.OrganizationID,
			Type:           domain.NotifyLinkClicked,
			Title:          "Link clicked",
			Message:        fmt.Sprintf("%s clicked a tracked link for campaign %q", target.Email, camp.Name),
			Priority:       "normal",
			ActionURL:      "/campaigns/" + camp.ID.String(),
			Metadata:       pairMetadata(campaignID, targetID),
		})
	}
	return dest, nil
}

// decodeClickURL decodes the base64url u parameter and allow-lists the
// http and https schemes. The redirect endpoint deliberately performs no
// destination-domain validation; restricting it would break simulation
// fidelity for arbitrary cloned sites.
func decodeClickURL(encoded string) (string, error) {
	if encoded == "" {
		return "", port.ErrInvalidRedirectURL
	}
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", port.ErrInvalidRedirectURL, err)
	}
	u, err := url.Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", port.ErrInvalidRedirectURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", port.ErrInvalidRedirectURL, u.Scheme)
	}
	return u.String(), nil
}

// RenderLanding returns the landing page HTML for one recipient with
// tokens substituted, links rewritten, forms pointed at the capture
// endpoint and the open pixel injected.
func (t *Tracker) RenderLanding(ctx context.Context, campaignID, targetID uuid.UUID) (string, error) {
	camp, target, err := t.lookup(ctx, campaignID, targetID)
	if err != nil {
		return "", err
	}
	page, err := t.campaigns.GetLandingPage(ctx, camp.LandingPageID)
	if err != nil {
		return "", err
	}
	if page == nil {
		return "", fmt.Errorf("landing page %s: %w", camp.LandingPageID, port.ErrNotFound)
	}
	return t.rewriter.RenderLandingPage(page.HTML, *target, camp.ID), nil
}

// TrackSubmission records a credential/form capture. The submitted state is
// terminal and sticky; the payload is filtered by the landing page's
// capture flags before persistence. The recipient-visible response (the
// redirect, if any) succeeds even when bookkeeping fails.
func (t *Tracker) TrackSubmission(ctx context.Context, campaignID, targetID uuid.UUID, form url.Values) (string, error) {
	camp, target, err := t.lookup(ctx, campaignID, targetID)
	if err != nil {
		return "", err
	}
	page, err := t.campaigns.GetLandingPage(ctx, camp.LandingPageID)
	if err != nil {
		return "", err
	}
	if page == nil {
		return "", fmt.Errorf("landing page %s: %w", camp.LandingPageID, port.ErrNotFound)
	}

	var payload []byte
	if page.CaptureData {
		filtered := filterSubmission(form, page.CapturePasswords)
		if len(filtered) > 0 {
			payload, err = json.Marshal(filtered)
			if err != nil {
				t.logger.Error("marshal submission payload", slog.Any("error", err))
				payload = nil
			}
		}
	}

	first, err := t.results.RecordSubmission(ctx, campaignID, targetID, camp.OrganizationID, payload, time.Now().UTC())
	if err != nil {
		t.logger.Error("submission bookkeeping failed",
			slog.String("campaign_id", campaignID.String()),
			slog.String("target_id", targetID.String()),
			slog.Any("error", err))
		return page.RedirectURL, nil
	}
	if first {
		t.notifyAdmins(ctx, camp, domain.Notification{
			OrganizationID: camp.OrganizationID,
			Type:           domain.NotifyDataSubmitted,
			Title:          "Data submitted",
			Message:        fmt.Sprintf("%s submitted form data for campaign %q", target.Email, camp.Name),
			Priority:       "high",
			ActionURL:      "/campaigns/" + camp.ID.String(),
			Metadata:       pairMetadata(campaignID, targetID),
		})
	}
	return page.RedirectURL, nil
}

// filterSubmission flattens the form to single values and, unless password
// capture is enabled, drops fields with password-like names.
func filterSubmission(form url.Values, capturePasswords bool) map[string]string {
	out := make(map[string]string, len(form))
	for name, values := range form {
		if !capturePasswords && passwordFieldRe.MatchString(name) {
			continue
		}
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}

func pairMetadata(campaignID, targetID uuid.UUID) map[string]string {
	return map[string]string{
		"campaignId": campaignID.String(),
		"targetId":   targetID.String(),
	}
}
