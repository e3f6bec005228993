package email

import (
	"errors"
	"net/smtp"
	"testing"

	"expert-backend/config"
	"expert-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(sendErr error) (*EmailService, *captured) {
	svc := NewEmailService(&config.Config{
		SMTPHost:      "smtp.test",
		SMTPPort:      "587",
		SMTPUsername:  "mailer",
		SMTPPassword:  "secret",
		SMTPFromEmail: "noreply@expert-hub.test",
	})
	c := &captured{}
	svc.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		c.addr, c.from, c.to, c.msg = addr, from, to, string(msg)
		return sendErr
	}
	return svc, c
}

func TestSendWelcomeEmail(t *testing.T) {
	svc, c := newTestService(nil)

	err := svc.SendWelcomeEmail(domain.WelcomeEmailData{
		To:        "jane@example.com",
		Greeting:  "Hi Jane",
		LoginLink: "https://app.test/sign-in",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.test:587", c.addr)
	assert.Equal(t, "noreply@expert-hub.test", c.from)
	assert.Equal(t, []string{"jane@example.com"}, c.to)
	assert.Contains(t, c.msg, "Subject: Welcome to the Expert Hub")
	assert.Contains(t, c.msg, "Hi Jane")
	assert.Contains(t, c.msg, "https://app.test/sign-in")
}

func TestSendTeamReadyEmail_EscapesTeamName(t *testing.T) {
	svc, c := newTestService(nil)

	err := svc.SendTeamReadyEmail(domain.TeamReadyEmailData{
		To:            "admin@example.com",
		Greeting:      "Hello",
		TeamName:      "<Acme>",
		DashboardLink: "https://app.test/en/overview",
	})
	require.NoError(t, err)
	assert.Contains(t, c.msg, "&lt;Acme&gt;")
}

func TestSendTemplate_Errors(t *testing.T) {
	t.Run("Should wrap transport errors", func(t *testing.T) {
		svc, _ := newTestService(errors.New("connection refused"))
		err := svc.SendWelcomeEmail(domain.WelcomeEmailData{To: "jane@example.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("Should refuse when not configured", func(t *testing.T) {
		svc := NewEmailService(&config.Config{})
		assert.False(t, svc.IsConfigured())
		assert.Error(t, svc.SendWelcomeEmail(domain.WelcomeEmailData{To: "jane@example.com"}))
	})

	t.Run("Should refuse an empty recipient", func(t *testing.T) {
		svc, _ := newTestService(nil)
		assert.Error(t, svc.SendWelcomeEmail(domain.WelcomeEmailData{}))
	})
}
