package domain

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventUserCreated    = "user.created"
	EventUserUpdated    = "user.updated"
	EventUserDeleted    = "user.deleted"
	EventSessionCreated = "session.created"
)

// WebhookEvent is the envelope of an auth provider webhook delivery.
type WebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type SessionEventData struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

type DeletedEventData struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeliveryStore remembers processed webhook delivery ids.
type DeliveryStore interface {
	// MarkProcessed records id and reports whether this is its first delivery.
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)
	// Forget drops id so a failed delivery can be retried.
	Forget(ctx context.Context, id string) error
}

type WebhookUsecase interface {
	HandleEvent(ctx context.Context, deliveryID string, evt *WebhookEvent) error
}

// Mailer sends transactional account emails.
type Mailer interface {
	IsConfigured() bool
	SendWelcomeEmail(data WelcomeEmailData) error
	SendTeamReadyEmail(data TeamReadyEmailData) error
}

type WelcomeEmailData struct {
	To        string
	Greeting  string
	LoginLink string
}

type TeamReadyEmailData struct {
	To            string
	Greeting      string
	TeamName      string
	DashboardLink string
}
