package handler

import (
	"errors"
	"io"
	"net/http"

	billingapp "github.com/BoweryJG/osbackend-sub001/internal/application/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Maximum webhook payload size (64KB - Stripe webhooks are typically small)
const maxWebhookPayloadSize = 65536

// StripeEventVerifier verifies a raw webhook payload against its
// signature header and decodes it into a payment event
type StripeEventVerifier interface {
	VerifyAndParse(payload []byte, signature string) (*billingapp.StripePaymentEvent, error)
}

// StripeWebhookHandler handles Stripe webhook endpoints
// These endpoints are called by Stripe and do not require authentication
type StripeWebhookHandler struct {
	BaseHandler
	verifier       StripeEventVerifier
	webhookService *billingapp.StripeWebhookService
	logger         *zap.Logger
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler
func NewStripeWebhookHandler(
	verifier StripeEventVerifier,
	webhookService *billingapp.StripeWebhookService,
	logger *zap.Logger,
) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		verifier:       verifier,
		webhookService: webhookService,
		logger:         logger,
	}
}

// StripeWebhookResponse represents the response for Stripe webhook
type StripeWebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleStripeWebhook verifies and processes a Stripe payment event.
// Processing failures that a retry cannot fix still return 200 so
// Stripe stops redelivering; transient failures return 500 so it
// retries.
func (h *StripeWebhookHandler) HandleStripeWebhook(c *gin.Context) {
	// Stripe requires the raw body for signature verification
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, StripeWebhookResponse{
			Received: false,
			Message:  "Failed to read request body",
		})
		return
	}

	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, StripeWebhookResponse{
			Received: false,
			Message:  "Payload too large",
		})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusUnauthorized, StripeWebhookResponse{
			Received: false,
			Message:  "Missing Stripe-Signature header",
		})
		return
	}

	event, err := h.verifier.VerifyAndParse(payload, signature)
	if err != nil {
		h.logger.Warn("stripe webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, StripeWebhookResponse{
			Received: false,
			Message:  "Webhook signature verification failed",
		})
		return
	}

	if err := h.webhookService.HandleEvent(c.Request.Context(), *event); err != nil {
		// Do not expose internal error details to the caller
		h.logger.Error("stripe webhook processing failed",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.Type),
			zap.Error(err))

		if isRetryable(err) {
			c.JSON(http.StatusInternalServerError, StripeWebhookResponse{
				Received: false,
				EventID:  event.EventID,
				Message:  "Processing failed, retry later",
			})
			return
		}

		c.JSON(http.StatusOK, StripeWebhookResponse{
			Received:  true,
			EventID:   event.EventID,
			EventType: event.Type,
			Message:   "Webhook received but processing encountered an issue",
		})
		return
	}

	c.JSON(http.StatusOK, StripeWebhookResponse{
		Received:  true,
		EventID:   event.EventID,
		EventType: event.Type,
		Message:   "Webhook processed successfully",
	})
}

// isRetryable reports whether redelivering the event could succeed.
// Domain rejections are permanent; infrastructure failures are not.
func isRetryable(err error) bool {
	var domainErr *shared.DomainError
	return !errors.As(err, &domainErr)
}
