package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"expert-backend/internal/domain"
	"expert-backend/pkg/apperror"
	"expert-backend/pkg/logger"
	"expert-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// WebhookVerifier checks a delivery's Svix signature headers against its raw
// body. *svix.Webhook satisfies it.
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

type WebhookHandler struct {
	verifier  WebhookVerifier
	webhookUC domain.WebhookUsecase
}

func NewWebhookHandler(r *gin.RouterGroup, verifier WebhookVerifier, webhookUC domain.WebhookUsecase) {
	handler := &WebhookHandler{
		verifier:  verifier,
		webhookUC: webhookUC,
	}

	r.POST("/auth", handler.Receive)
}

// Receive godoc
// @Summary      Receive auth provider events
// @Description  Verifies the Svix signature and syncs users on user.created, user.updated, session.created and user.deleted
// @Tags         webhooks
// @Accept       json
// @Produce      plain
// @Param        svix-id         header  string  true  "Delivery id"
// @Param        svix-timestamp  header  string  true  "Delivery timestamp"
// @Param        svix-signature  header  string  true  "Delivery signature"
// @Success      200  {string}  string  "ok"
// @Failure      400  {string}  string  "not listed event"
// @Failure      401  {object}  map[string]string
// @Router       /api/webhooks/auth [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	deliveryID := c.GetHeader("svix-id")

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.String(http.StatusBadRequest, "unreadable body")
		return
	}

	if err := h.verifier.Verify(payload, c.Request.Header); err != nil {
		security.DefaultLogger().LogWebhookRejected(c.Request.Context(), c.ClientIP(), deliveryID, err.Error())
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var evt domain.WebhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		c.String(http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.webhookUC.HandleEvent(c.Request.Context(), deliveryID, &evt); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError {
			logger.Log.Warn("Webhook event rejected", "delivery_id", deliveryID, "type", evt.Type, "error", appErr.Message)
			c.String(appErr.Code, appErr.Message)
			return
		}
		c.Error(err)
		return
	}

	c.String(http.StatusOK, "ok")
}
