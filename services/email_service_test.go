package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationTemplate(t *testing.T) {
	var body bytes.Buffer
	err := invitationTemplate.Execute(&body, InvitationEmail{
		InviteeName: "Dana",
		InviterName: "Cap",
		TeamName:    "<b>Alpha</b>",
		EventName:   "GopherCon",
		LoginURL:    "http://localhost:8080/login",
	})

	require.NoError(t, err)
	assert.Contains(t, body.String(), "Hi Dana")
	assert.Contains(t, body.String(), `href="http://localhost:8080/login"`)
	assert.Contains(t, body.String(), "&lt;b&gt;Alpha&lt;/b&gt;")
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525, From: "noreply@example.com"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mailer.SendInvitation(ctx, "dana@example.com", InvitationEmail{TeamName: "Alpha"})
	assert.ErrorIs(t, err, context.Canceled)
}
