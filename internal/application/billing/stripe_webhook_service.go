package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StripePaymentEvent is the provider-neutral shape of a verified
// payment webhook event. Signature verification and JSON decoding
// happen at the transport edge.
type StripePaymentEvent struct {
	EventID         string
	Type            string // e.g. "invoice.payment_succeeded"
	StripeInvoiceID string
	AmountCents     int64
	PaymentIntentID string
}

// Event types handled by the webhook service
const (
	StripeEventPaymentSucceeded    = "invoice.payment_succeeded"
	StripeEventPaymentFailed       = "invoice.payment_failed"
	StripeEventIntentSucceeded     = "payment_intent.succeeded"
	StripeEventSubscriptionUpdated = "customer.subscription.updated"
)

// StripeWebhookService applies verified provider payment events to
// local invoices. Events are deduplicated by event id; redelivery is
// acknowledged without recording a second payment.
type StripeWebhookService struct {
	invoiceRepo billing.InvoiceRepository
	payments    *PaymentService
	dedup       shared.IdempotencyStore
	logger      *zap.Logger
}

// NewStripeWebhookService creates a new Stripe webhook service
func NewStripeWebhookService(
	invoiceRepo billing.InvoiceRepository,
	payments *PaymentService,
	dedup shared.IdempotencyStore,
	logger *zap.Logger,
) *StripeWebhookService {
	return &StripeWebhookService{
		invoiceRepo: invoiceRepo,
		payments:    payments,
		dedup:       dedup,
		logger:      logger,
	}
}

// HandleEvent dispatches one verified event. Unhandled event types are
// acknowledged and ignored.
func (s *StripeWebhookService) HandleEvent(ctx context.Context, event StripePaymentEvent) error {
	if event.EventID == "" {
		return shared.NewDomainError("INVALID_EVENT", "Event id is required")
	}

	dedupKey := "stripe:" + event.EventID
	seen, err := s.dedup.IsProcessed(ctx, dedupKey)
	if err != nil {
		return fmt.Errorf("event dedup failed: %w", err)
	}
	if seen {
		s.logger.Info("duplicate stripe event ignored", zap.String("event_id", event.EventID))
		return nil
	}

	if err := s.dispatch(ctx, event); err != nil {
		// Not marked processed, so a provider retry gets another attempt.
		return err
	}

	// Marking happens only after the event applied, so a transient
	// failure above leaves the event unmarked and the provider retry
	// gets processed instead of being acked as a duplicate.
	if _, err := s.dedup.MarkProcessed(ctx, dedupKey, shared.DefaultIdempotencyConfig().TTL); err != nil {
		s.logger.Warn("failed to mark stripe event processed",
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}

	return nil
}

func (s *StripeWebhookService) dispatch(ctx context.Context, event StripePaymentEvent) error {
	switch event.Type {
	case StripeEventPaymentSucceeded:
		return s.handlePaymentSucceeded(ctx, event)
	case StripeEventIntentSucceeded:
		// Intents not tied to a mirrored invoice settle out of band,
		// there is nothing local to apply them to.
		if event.StripeInvoiceID == "" {
			s.logger.Info("standalone payment intent acknowledged",
				zap.String("payment_intent_id", event.PaymentIntentID),
				zap.String("event_id", event.EventID))
			return nil
		}
		return s.handlePaymentSucceeded(ctx, event)
	case StripeEventPaymentFailed:
		s.logger.Warn("stripe payment failed",
			zap.String("stripe_invoice_id", event.StripeInvoiceID),
			zap.String("event_id", event.EventID))
		return nil
	case StripeEventSubscriptionUpdated:
		s.logger.Info("stripe subscription updated",
			zap.String("event_id", event.EventID))
		return nil
	default:
		s.logger.Debug("unhandled stripe event type", zap.String("type", event.Type))
		return nil
	}
}

func (s *StripeWebhookService) handlePaymentSucceeded(ctx context.Context, event StripePaymentEvent) error {
	if event.StripeInvoiceID == "" {
		return shared.NewDomainError("INVALID_EVENT", "Stripe invoice id is required")
	}
	if event.AmountCents <= 0 {
		return shared.NewDomainError("INVALID_EVENT", "Paid amount must be positive")
	}

	invoice, err := s.invoiceRepo.FindByStripeInvoiceID(ctx, event.StripeInvoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Mirroring is best effort, so a provider invoice we never
			// stored can legitimately pay. Acknowledge and log.
			s.logger.Warn("payment for unknown mirrored invoice",
				zap.String("stripe_invoice_id", event.StripeInvoiceID))
			return nil
		}
		return err
	}

	amount := decimal.NewFromInt(event.AmountCents).Div(decimal.NewFromInt(100))

	_, err = s.payments.RecordPayment(ctx, RecordPaymentInput{
		TenantID:  invoice.TenantID,
		InvoiceID: &invoice.ID,
		Amount:    amount,
		Method:    billing.PaymentMethodCard,
		Reference: event.PaymentIntentID,
		Notes:     "Stripe automatic payment",
	})
	if err != nil {
		return fmt.Errorf("failed to record stripe payment: %w", err)
	}

	return nil
}
