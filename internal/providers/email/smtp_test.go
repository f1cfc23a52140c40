package email

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendTemplateRendersPilotRequest(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	p := NewSMTP(Config{Host: "smtp.local", Port: 2525, From: "no-reply@agrilink.local"})
	p.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := p.SendTemplate(context.Background(), []string{"ops@agrilink.local"}, "pilot_request", map[string]any{
		"fields":     map[string]any{"company": "Fresh <Co>", "email": "a@b.c"},
		"receivedAt": "2025-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "smtp.local:2525", gotAddr)
	assert.Equal(t, []string{"ops@agrilink.local"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: New AgriLink pilot request")
	assert.Contains(t, gotMsg, "Fresh &lt;Co&gt;")
}

func TestSendRequiresRecipients(t *testing.T) {
	p := NewSMTP(Config{Host: "smtp.local", Port: 25})
	assert.Error(t, p.Send(context.Background(), nil, "s", "b"))
}

func TestUnknownTemplate(t *testing.T) {
	_, err := Render("nope", nil)
	assert.Error(t, err)
}
