package usecase

import (
	"context"
	"encoding/json"
	"time"

	"expert-backend/internal/domain"
	"expert-backend/pkg/apperror"
	"expert-backend/pkg/logger"
	"expert-backend/pkg/metrics"
)

// ErrUnlistedEvent is returned for event types the service does not handle.
var ErrUnlistedEvent = apperror.BadRequest("not listed event")

type webhookUsecase struct {
	accountUC  domain.AccountUsecase
	deliveries domain.DeliveryStore
	mailer     domain.Mailer
	dedupeTTL  time.Duration
	baseURL    string
}

func NewWebhookUsecase(
	accountUC domain.AccountUsecase,
	deliveries domain.DeliveryStore,
	mailer domain.Mailer,
	dedupeTTL time.Duration,
	baseURL string,
) domain.WebhookUsecase {
	return &webhookUsecase{
		accountUC:  accountUC,
		deliveries: deliveries,
		mailer:     mailer,
		dedupeTTL:  dedupeTTL,
		baseURL:    baseURL,
	}
}

func (u *webhookUsecase) HandleEvent(ctx context.Context, deliveryID string, evt *domain.WebhookEvent) error {
	if evt == nil {
		return apperror.BadRequest("Missing event")
	}

	dedupe := u.deliveries != nil && deliveryID != ""
	if dedupe {
		first, err := u.deliveries.MarkProcessed(ctx, deliveryID, u.dedupeTTL)
		if err != nil {
			// Processing is idempotent, so a store outage only costs a replay.
			logger.Log.Warn("Delivery store unavailable", "delivery_id", deliveryID, "error", err)
			dedupe = false
		} else if !first {
			metrics.WebhookEvents.WithLabelValues(eventLabel(evt.Type), "duplicate").Inc()
			logger.Log.Info("Skipping duplicate webhook delivery", "delivery_id", deliveryID, "type", evt.Type)
			return nil
		}
	}

	err := u.dispatch(ctx, evt)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(eventLabel(evt.Type), "error").Inc()
		if dedupe {
			if ferr := u.deliveries.Forget(ctx, deliveryID); ferr != nil {
				logger.Log.Warn("Failed to release delivery id", "delivery_id", deliveryID, "error", ferr)
			}
		}
		return err
	}

	metrics.WebhookEvents.WithLabelValues(eventLabel(evt.Type), "ok").Inc()
	return nil
}

func (u *webhookUsecase) dispatch(ctx context.Context, evt *domain.WebhookEvent) error {
	switch evt.Type {
	case domain.EventUserCreated, domain.EventUserUpdated:
		var profile domain.IdentityProfile
		if err := json.Unmarshal(evt.Data, &profile); err != nil {
			return apperror.BadRequest("Invalid event payload")
		}
		if profile.ID == "" {
			return apperror.BadRequest("Event has no user id")
		}
		email := profile.PrimaryEmail()
		if email == "" {
			return apperror.BadRequest("Event has no email address")
		}

		_, created, err := u.accountUC.MergeUserByEmail(ctx, profile.ID, email, profile.FullName())
		if err != nil {
			return err
		}
		if evt.Type == domain.EventUserCreated && created {
			u.sendWelcome(email, profile.FullName())
		}
		return nil

	case domain.EventSessionCreated:
		var session domain.SessionEventData
		if err := json.Unmarshal(evt.Data, &session); err != nil {
			return apperror.BadRequest("Invalid event payload")
		}
		if session.UserID == "" {
			return apperror.BadRequest("Event has no user id")
		}
		return u.accountUC.SyncFromProvider(ctx, session.UserID)

	case domain.EventUserDeleted:
		var deleted domain.DeletedEventData
		if err := json.Unmarshal(evt.Data, &deleted); err != nil {
			return apperror.BadRequest("Invalid event payload")
		}
		if deleted.ID == "" {
			return apperror.BadRequest("Event has no user id")
		}
		return u.accountUC.DeleteUser(ctx, deleted.ID)
	}

	return ErrUnlistedEvent
}

func (u *webhookUsecase) sendWelcome(email, fullName string) {
	if u.mailer == nil || !u.mailer.IsConfigured() {
		return
	}
	err := u.mailer.SendWelcomeEmail(domain.WelcomeEmailData{
		To:        email,
		Greeting:  greeting(fullName),
		LoginLink: u.baseURL + "/en/sign-in",
	})
	if err != nil {
		logger.Log.Warn("Failed to send welcome email", "error", err)
	}
}

// eventLabel keeps the metric label set bounded.
func eventLabel(t string) string {
	switch t {
	case domain.EventUserCreated, domain.EventUserUpdated, domain.EventUserDeleted, domain.EventSessionCreated:
		return t
	}
	return "unlisted"
}
