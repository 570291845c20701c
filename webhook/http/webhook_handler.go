package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dfryer1193/alttext/internal/events"
	"github.com/dfryer1193/alttext/media/application"
	"github.com/dfryer1193/alttext/media/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"
)

const (
	// SignatureHeader carries "sha256=<hex hmac>" of the request body
	SignatureHeader = "X-Signature-256"
	maxPayloadBytes = 1 << 20
)

var ErrInvalidSignature = errors.New("invalid payload signature")

// WebhookHandler receives upload notifications from the media store
type WebhookHandler struct {
	webhookSecret []byte
	hooks         *application.Hooks
}

func NewWebhookHandler(secret string, hooks *application.Hooks) *WebhookHandler {
	if secret == "" {
		panic("WEBHOOK_SECRET is not set")
	}

	return &WebhookHandler{
		webhookSecret: []byte(secret),
		hooks:         hooks,
	}
}

func (h *WebhookHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/webhook/upload", h.HandleUploadWebhook)
}

func (h *WebhookHandler) HandleUploadWebhook(c *gin.Context) {
	payload, err := h.validatePayload(c.Request)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	evt, err := events.DecodeUploadEvent(payload)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid event")
		return
	}

	outcome, err := h.hooks.OnUpload(c.Request.Context(), evt.ID)
	if errors.Is(err, domain.ErrImageNotFound) {
		c.String(http.StatusNotFound, "Unknown image")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("image_id", evt.ID).Msg("Failed to handle upload webhook")
		c.String(http.StatusInternalServerError, "Error handling event")
		return
	}

	log.Debug().Int64("image_id", evt.ID).Int("updated", outcome.Updated).Msg("Handled upload webhook")
	c.Status(http.StatusNoContent)
}

// validatePayload reads the body and checks its HMAC signature
func (h *WebhookHandler) validatePayload(r *http.Request) ([]byte, error) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		return nil, err
	}

	if err := github.ValidateSignature(r.Header.Get(SignatureHeader), payload, h.webhookSecret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return payload, nil
}
