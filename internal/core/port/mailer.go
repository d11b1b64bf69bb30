package port

import (
	"context"

	"phishsim/internal/core/domain"
)

// OutgoingEmail is one rendered message ready for submission.
type OutgoingEmail struct {
	From    string
	To      string
	Subject string
	HTML    []byte
}

// Mailer is an authenticated mail-submission session. One Mailer serves a
// whole campaign run.
type Mailer interface {
	// Verify probes connectivity to the submission endpoint. Callers treat
	// a failure as advisory only: some servers reject probes yet accept
	// real mail, so sends are attempted regardless.
	Verify(ctx context.Context) error

	// Send submits a single message, honouring the context deadline. There
	// is no retry; a failed send is reported to the caller exactly once.
	Send(ctx context.Context, msg OutgoingEmail) error
}

// MailerFactory builds a Mailer from an organization-supplied SMTP profile.
type MailerFactory func(profile domain.SMTPProfile) Mailer
