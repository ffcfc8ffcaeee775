package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/devhance/backend/internal/service"
)

// WebhookHandler receives identity-provider events and mirrors them
// into the users table.
type WebhookHandler struct {
	identity service.IIdentityService
	users    service.IUserService
}

func NewWebhookHandler(identity service.IIdentityService, users service.IUserService) *WebhookHandler {
	return &WebhookHandler{identity: identity, users: users}
}

func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/clerk", h.HandleIdentityEvent)
}

// HandleIdentityEvent verifies the webhook signature before touching
// anything. An unverifiable payload is a 401, never a partial apply.
func (h *WebhookHandler) HandleIdentityEvent(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	event, err := h.identity.VerifyWebhook(c.Request.Header, payload)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Info().Str("type", event.Type).Str("user_id", event.Data.ID).Msg("identity event received")

	if err := h.users.ApplyIdentityEvent(c.Request.Context(), event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event processed"})
}
