package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"phishsim/internal/core/domain"
	"phishsim/internal/core/port"
	"phishsim/internal/core/rewrite"
)

// DefaultSendTimeout bounds a single SMTP submission so one hanging server
// cannot stall delivery to the remaining targets.
const DefaultSendTimeout = 30 * time.Second

// Dispatcher implements port.Dispatcher: it renders and sends a campaign's
// email to every target in its group and records per-target outcomes.
// Partial failure is the default, not an exception: a failed send leaves
// that one result pending and the loop continues. There are no automatic
// retries; a pending result is relaunched manually.
type Dispatcher struct {
	campaigns   port.CampaignStore
	results     port.ResultStore
	notifier    port.Notifier
	rewriter    *rewrite.Rewriter
	newMailer   port.MailerFactory
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewDispatcher creates the dispatcher usecase. A non-positive sendTimeout
// falls back to DefaultSendTimeout.
func NewDispatcher(campaigns port.CampaignStore, results port.ResultStore, notifier port.Notifier, rewriter *rewrite.Rewriter, newMailer port.MailerFactory, sendTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Dispatcher{
		campaigns:   campaigns,
		results:     results,
		notifier:    notifier,
		rewriter:    rewriter,
		newMailer:   newMailer,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Run executes one campaign send. The campaign must belong to the given
// organization; a mismatch returns ErrNotFound without mutating anything.
// After every target is processed the campaign is marked Completed and a
// single "N of M sent" summary notification goes to the org admins.
func (d *Dispatcher) Run(ctx context.Context, campaignID, organizationID uuid.UUID) (port.DispatchSummary, error) {
	var summary port.DispatchSummary

	camp, err := d.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return summary, err
	}
	if camp == nil || camp.OrganizationID != organizationID {
		return summary, fmt.Errorf("campaign %s: %w", campaignID, port.ErrNotFound)
	}

	tmpl, err := d.campaigns.GetTemplate(ctx, camp.TemplateID)
	if err != nil {
		return summary, err
	}
	if tmpl == nil {
		return summary, fmt.Errorf("email template %s: %w", camp.TemplateID, port.ErrNotFound)
	}
	profile, err := d.campaigns.GetSMTPProfile(ctx, camp.SMTPProfileID)
	if err != nil {
		return summary, err
	}
	if profile == nil {
		return summary, fmt.Errorf("smtp profile %s: %w", camp.SMTPProfileID, port.ErrNotFound)
	}
	targets, err := d.campaigns.ListTargets(ctx, camp.GroupID)
	if err != nil {
		return summary, err
	}
	summary.Total = len(targets)

	mailer := d.newMailer(*profile)
	// Some SMTP servers reject verification probes yet accept real mail,
	// so a failed probe is advisory only.
	if err := mailer.Verify(ctx); err != nil {
		d.logger.Warn("smtp verification failed, attempting sends anyway",
			slog.String("host", profile.Host),
			slog.Any("error", err))
	}

	from := (&mail.Address{Name: profile.FromName, Address: profile.FromAddress}).String()
	for _, target := range targets {
		delivered := d.sendOne(ctx, mailer, camp, tmpl, from, target)
		if rerr := d.results.RecordSent(ctx, camp.ID, target.ID, camp.OrganizationID, delivered, time.Now().UTC()); rerr != nil {
			d.logger.Error("record send outcome",
				slog.String("campaign_id", camp.ID.String()),
				slog.String("target", target.Email),
				slog.Any("error", rerr))
		}
		if delivered {
			summary.Sent++
		}
	}

	if err := d.campaigns.SetCampaignStatus(ctx, camp.ID, domain.CampaignCompleted); err != nil {
		return summary, fmt.Errorf("mark campaign completed: %w", err)
	}

	fanOut(ctx, d.campaigns, d.notifier, d.logger, camp.OrganizationID, domain.Notification{
		OrganizationID: camp.OrganizationID,
		Type:           domain.NotifyCampaignCompleted,
		Title:          "Campaign completed",
		Message:        fmt.Sprintf("Campaign %q finished: %d of %d emails sent", camp.Name, summary.Sent, summary.Total),
		Priority:       "normal",
		ActionURL:      "/campaigns/" + camp.ID.String(),
		Metadata:       map[string]string{"campaignId": camp.ID.String()},
	})
	return summary, nil
}

// sendOne renders and submits the email for a single target, bounded by
// the per-send timeout. It reports whether the send was delivered.
func (d *Dispatcher) sendOne(ctx context.Context, mailer port.Mailer, camp *domain.Campaign, tmpl *domain.EmailTemplate, from string, target domain.Target) bool {
	html := d.rewriter.RenderEmail(tmpl.HTML, target, camp.ID)
	subject := d.rewriter.Substitute(tmpl.Subject, target, camp.ID)

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	err := mailer.Send(sendCtx, port.OutgoingEmail{
		From:    from,
		To:      target.Email,
		Subject: subject,
		HTML:    []byte(html),
	})
	if err != nil {
		d.logger.Error("send failed",
			slog.String("campaign_id", camp.ID.String()),
			slog.String("target", target.Email),
			slog.Any("error", err))
		return false
	}
	return true
}
