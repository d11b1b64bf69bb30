package port

import (
	"context"

	"phishsim/internal/core/domain"
)

// Notifier delivers engagement notifications to the external sink.
// Callers log and swallow errors; notification delivery is best-effort and
// must never fail the operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}
