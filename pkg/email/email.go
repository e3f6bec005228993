package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"expert-backend/config"
	"expert-backend/internal/domain"
)

// sendFunc matches smtp.SendMail so tests can capture outgoing messages.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService handles sending emails via SMTP
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	send      sendFunc
}

// NewEmailService creates a new email service from the SMTP configuration
func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.SMTPFromEmail,
		send:      smtp.SendMail,
	}
}

const layoutStart = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0b1f3a; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .button { display: inline-block; background: #0b1f3a; color: white; padding: 10px 18px; text-decoration: none; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">`

const layoutEnd = `
        <div class="footer">
            <p>You are receiving this email because an account was registered with this address.</p>
        </div>
    </div>
</body>
</html>`

var welcomeTemplate = template.Must(template.New("welcome").Parse(layoutStart + `
        <div class="header"><h1>Welcome aboard</h1></div>
        <div class="content">
            <p>{{.Greeting}},</p>
            <p>Your account is ready. Sign in to complete your profile and start working with clients.</p>
            <p><a class="button" href="{{.LoginLink}}">Sign in</a></p>
        </div>` + layoutEnd))

var teamReadyTemplate = template.Must(template.New("team_ready").Parse(layoutStart + `
        <div class="header"><h1>{{.TeamName}} is ready</h1></div>
        <div class="content">
            <p>{{.Greeting}},</p>
            <p>Your workspace <strong>{{.TeamName}}</strong> has been created. You can now invite experts and set up projects.</p>
            <p><a class="button" href="{{.DashboardLink}}">Open dashboard</a></p>
        </div>` + layoutEnd))

// SendWelcomeEmail greets a newly registered account.
func (s *EmailService) SendWelcomeEmail(data domain.WelcomeEmailData) error {
	return s.sendTemplate(data.To, "Welcome to the Expert Hub", welcomeTemplate, data)
}

// SendTeamReadyEmail confirms team creation to the administrator.
func (s *EmailService) SendTeamReadyEmail(data domain.TeamReadyEmailData) error {
	return s.sendTemplate(data.To, fmt.Sprintf("Your workspace %s is ready", data.TeamName), teamReadyTemplate, data)
}

func (s *EmailService) sendTemplate(to, subject string, tmpl *template.Template, data interface{}) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email service is not configured")
	}
	if to == "" {
		return fmt.Errorf("email recipient is empty")
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		s.fromEmail,
		to,
		subject,
		body.String(),
	))

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// IsConfigured checks if the email service has valid SMTP configuration
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != ""
}
