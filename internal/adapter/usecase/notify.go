package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"phishsim/internal/core/domain"
	"phishsim/internal/core/port"
)

// fanOut delivers one notification to every admin of an organization.
// Delivery is best-effort: every failure is logged and swallowed so a dead
// sink can never fail the tracking or dispatch operation that triggered it.
func fanOut(ctx context.Context, store port.CampaignStore, notifier port.Notifier, logger *slog.Logger, orgID uuid.UUID, n domain.Notification) {
	admins, err := store.ListOrgAdmins(ctx, orgID)
	if err != nil {
		logger.Warn("list org admins for notification",
			slog.String("organization_id", orgID.String()),
			slog.Any("error", err))
		return
	}
	for _, adminID := range admins {
		n.UserID = adminID
		if err := notifier.Notify(ctx, n); err != nil {
			logger.Warn("notification delivery failed",
				slog.String("user_id", adminID.String()),
				slog.String("type", string(n.Type)),
				slog.Any("error", err))
		}
	}
}

func (t *Tracker) notifyAdmins(ctx context.Context, camp *domain.Campaign, n domain.Notification) {
	fanOut(ctx, t.campaigns, t.notifier, t.logger, camp.OrganizationID, n)
}
