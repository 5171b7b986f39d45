package billing

import (
	"encoding/json"
	"fmt"

	appbilling "github.com/BoweryJG/osbackend-sub001/internal/application/billing"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// StripeWebhookVerifier checks webhook signatures and decodes payment
// events into the shape the application layer consumes. Events that
// fail verification never reach the application layer.
type StripeWebhookVerifier struct {
	secret string
	logger *zap.Logger
}

// NewStripeWebhookVerifier creates a verifier for the given endpoint secret
func NewStripeWebhookVerifier(secret string, logger *zap.Logger) *StripeWebhookVerifier {
	return &StripeWebhookVerifier{
		secret: secret,
		logger: logger,
	}
}

// VerifyAndParse verifies the Stripe-Signature header against the raw
// payload and extracts the payment event fields
func (v *StripeWebhookVerifier) VerifyAndParse(payload []byte, signature string) (*appbilling.StripePaymentEvent, error) {
	// API version pinning is not enforced here: the fields consumed
	// below are stable across the versions Stripe delivers, and a
	// version bump on the Stripe dashboard must not start rejecting
	// otherwise valid signed events.
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	parsed := &appbilling.StripePaymentEvent{
		EventID: event.ID,
		Type:    string(event.Type),
	}

	switch event.Type {
	case "invoice.payment_succeeded", "invoice.payment_failed":
		var stripeInvoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &stripeInvoice); err != nil {
			return nil, fmt.Errorf("failed to unmarshal invoice: %w", err)
		}
		parsed.StripeInvoiceID = stripeInvoice.ID
		parsed.AmountCents = stripeInvoice.AmountPaid
		if stripeInvoice.PaymentIntent != nil {
			parsed.PaymentIntentID = stripeInvoice.PaymentIntent.ID
		}
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payment intent: %w", err)
		}
		parsed.PaymentIntentID = intent.ID
		parsed.AmountCents = intent.AmountReceived
		if intent.Invoice != nil {
			parsed.StripeInvoiceID = intent.Invoice.ID
		}
	default:
		v.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
	}

	return parsed, nil
}
