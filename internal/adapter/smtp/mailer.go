package smtpadapter

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"github.com/jordan-wright/email"

	"phishsim/internal/core/domain"
	"phishsim/internal/core/port"
)

// Mailer is an SMTP-backed port.Mailer built from an organization-supplied
// profile. One Mailer serves a whole campaign run.
type Mailer struct {
	profile domain.SMTPProfile
	addr    string
	auth    smtp.Auth
}

// NewMailer builds a Mailer for the given profile. It satisfies
// port.MailerFactory. Profiles without a username talk to the server
// unauthenticated.
func NewMailer(profile domain.SMTPProfile) port.Mailer {
	var auth smtp.Auth
	if profile.Username != "" {
		auth = smtp.PlainAuth("", profile.Username, profile.Password, profile.Host)
	}
	return &Mailer{
		profile: profile,
		addr:    fmt.Sprintf("%s:%d", profile.Host, profile.Port),
		auth:    auth,
	}
}

// Verify probes the submission endpoint with a NOOP. Callers treat a
// failure as advisory: some servers reject probes yet accept real mail.
func (m *Mailer) Verify(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", m.addr, err)
	}
	c, err := smtp.NewClient(conn, m.profile.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake %s: %w", m.addr, err)
	}
	defer c.Close()
	if err := c.Noop(); err != nil {
		return fmt.Errorf("smtp noop %s: %w", m.addr, err)
	}
	return c.Quit()
}

// Send submits one message. The underlying library has no context support,
// so the blocking send runs in a goroutine raced against the deadline; on
// timeout the connection is abandoned to the runtime and the send is
// reported failed. There is no retry.
func (m *Mailer) Send(ctx context.Context, msg port.OutgoingEmail) error {
	e := email.NewEmail()
	e.From = msg.From
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.HTML = msg.HTML

	done := make(chan error, 1)
	go func() {
		done <- e.Send(m.addr, m.auth)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", msg.To, ctx.Err())
	}
}
