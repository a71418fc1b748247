package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// InvitationEmail - данные письма-приглашения в команду.
type InvitationEmail struct {
	InviteeName string
	InviterName string
	TeamName    string
	EventName   string
	LoginURL    string
}

type Mailer interface {
	SendInvitation(ctx context.Context, to string, data InvitationEmail) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *slog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

var invitationTemplate = template.Must(template.New("invitation").Parse(`<p>Hi {{.InviteeName}},</p>
<p>{{.InviterName}} invited you to join team <strong>{{.TeamName}}</strong> for <strong>{{.EventName}}</strong>.</p>
<p><a href="{{.LoginURL}}">Sign in</a> to accept or decline the invitation.</p>`))

func (m *smtpMailer) SendInvitation(ctx context.Context, to string, data InvitationEmail) error {
	var body bytes.Buffer
	if err := invitationTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render invitation email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Invitation to team %s", data.TeamName))
	msg.SetBody("text/html", body.String())

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send invitation email to %s: %w", to, err)
	}

	m.logger.Info("invitation email sent", slog.String("to", to), slog.String("team", data.TeamName))
	return nil
}

type nopMailer struct{}

func (nopMailer) SendInvitation(context.Context, string, InvitationEmail) error { return nil }
