// Package mail composes and delivers the three transactional emails the
// backend sends: email confirmation, organization invitation, and the
// invite-accepted notice. Delivery goes through a Transport chosen from
// configuration (Postmark HTTP API or SMTP); nothing in the application
// talks to a mail provider directly.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fest-dev/fest/internal/config"
	"github.com/fest-dev/fest/internal/telemetry"
)

// Message is a fully rendered outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Transport delivers a rendered message. Implementations: postmarkTransport,
// smtpTransport.
type Transport interface {
	Send(ctx context.Context, from string, msg *Message) error
}

// Sender renders templates and hands messages to the transport. When mail is
// disabled in configuration every send is a logged no-op, which keeps local
// development working without provider credentials.
type Sender struct {
	transport   Transport
	from        string
	frontendURL string
	enabled     bool
}

// New builds a Sender from the mail configuration. frontendURL is the base
// used for the deep links embedded in confirmation and invitation emails.
func New(cfg *config.MailConfig, frontendURL string) (*Sender, error) {
	s := &Sender{
		from:        cfg.From,
		frontendURL: frontendURL,
		enabled:     cfg.Enabled,
	}

	if !cfg.Enabled {
		return s, nil
	}

	switch cfg.Provider {
	case "postmark":
		s.transport = newPostmarkTransport(&cfg.Postmark)
	case "smtp":
		s.transport = newSMTPTransport(&cfg.SMTP)
	default:
		return nil, fmt.Errorf("unknown mail provider: %s", cfg.Provider)
	}

	return s, nil
}

// SendEmailConfirmation emails the user their confirmation code and the
// confirmation deep link carrying the signed token.
func (s *Sender) SendEmailConfirmation(ctx context.Context, to, code, token string) error {
	msg, err := renderEmailConfirmation(code, confirmationLink(s.frontendURL, token))
	if err != nil {
		return err
	}
	msg.To = to
	return s.send(ctx, "email_confirmation", msg)
}

// SendOrganizationInvitation emails the invitee the invitation deep link.
func (s *Sender) SendOrganizationInvitation(ctx context.Context, to, inviterEmail, organizationName, token string) error {
	msg, err := renderOrganizationInvitation(inviterEmail, organizationName, invitationLink(s.frontendURL, token))
	if err != nil {
		return err
	}
	msg.To = to
	return s.send(ctx, "organization_invitation", msg)
}

// SendInviteAccepted notifies the inviter that their invitation was accepted.
func (s *Sender) SendInviteAccepted(ctx context.Context, to, memberEmail, organizationName string) error {
	msg, err := renderInviteAccepted(memberEmail, organizationName)
	if err != nil {
		return err
	}
	msg.To = to
	return s.send(ctx, "invite_accepted", msg)
}

func (s *Sender) send(ctx context.Context, template string, msg *Message) error {
	if !s.enabled {
		slog.Info("mail disabled, skipping delivery", "template", template, "to", msg.To)
		return nil
	}

	if err := s.transport.Send(ctx, s.from, msg); err != nil {
		telemetry.EmailsSentTotal.WithLabelValues(template, "error").Inc()
		return fmt.Errorf("failed to deliver %s email: %w", template, err)
	}

	telemetry.EmailsSentTotal.WithLabelValues(template, "sent").Inc()
	return nil
}

// confirmationLink is the frontend route that submits the embedded token to
// the confirm-email-token endpoint.
func confirmationLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/get-started/email-confirm?t=%s", frontendURL, token)
}

// invitationLink is the frontend route that submits the embedded token to the
// invitation validate-token endpoint.
func invitationLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/get-started/invitation-accepted?t=%s", frontendURL, token)
}
