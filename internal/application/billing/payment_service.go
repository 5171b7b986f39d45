package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared/valueobject"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// saveLockRetries bounds optimistic-lock retries when applying a
// payment to an invoice under concurrent writers
const saveLockRetries = 3

// PaymentService records tenant payments and applies them to invoices
type PaymentService struct {
	paymentRepo  billing.PaymentRepository
	invoiceRepo  billing.InvoiceRepository
	sequenceRepo billing.SequenceRepository
	tenantRepo   tenant.Repository
	activityRepo tenant.ActivityLogRepository
	logger       *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo billing.PaymentRepository,
	invoiceRepo billing.InvoiceRepository,
	sequenceRepo billing.SequenceRepository,
	tenantRepo tenant.Repository,
	activityRepo tenant.ActivityLogRepository,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		invoiceRepo:  invoiceRepo,
		sequenceRepo: sequenceRepo,
		tenantRepo:   tenantRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// RecordPaymentInput describes a received payment
type RecordPaymentInput struct {
	TenantID  uuid.UUID
	InvoiceID *uuid.UUID // nil for a standalone balance top-up
	Amount    decimal.Decimal
	Method    billing.PaymentMethod
	Reference string
	Notes     string
}

// RecordPaymentResult reports how the payment settled
type RecordPaymentResult struct {
	Payment           *billing.Payment
	Invoice           *billing.Invoice // nil for standalone payments
	AppliedAmount     decimal.Decimal  // portion applied to the invoice
	CreditedToBalance decimal.Decimal  // full amount credited to the prepaid balance
}

// RecordPayment stores a payment, credits the full amount to the
// tenant's prepaid balance and, when an invoice is targeted, applies
// the amount to it under optimistic locking with bounded retry. The
// amount applied is capped at the invoice outstanding; settlement
// tracking on the invoice is independent of the balance credit.
func (s *PaymentService) RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error) {
	if _, err := s.tenantRepo.FindByID(ctx, input.TenantID); err != nil {
		return nil, err
	}

	amount := valueobject.NewMoneyUSD(input.Amount)
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	year := time.Now().Year()
	seq, err := s.sequenceRepo.NextNumber(ctx, billing.SequenceScopePayment, year)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate payment number: %w", err)
	}

	payment, err := billing.NewPayment(input.TenantID, FormatPaymentNumber(year, seq), amount, input.Method)
	if err != nil {
		return nil, err
	}
	if input.Reference != "" {
		payment.SetReference(input.Reference)
	}
	if input.Notes != "" {
		payment.SetNotes(input.Notes)
	}

	result := &RecordPaymentResult{
		Payment:           payment,
		AppliedAmount:     decimal.Zero,
		CreditedToBalance: input.Amount,
	}

	if input.InvoiceID != nil {
		invoice, applied, err := s.applyToInvoice(ctx, *input.InvoiceID, input.TenantID, amount)
		if err != nil {
			return nil, err
		}
		if err := payment.AttachInvoice(invoice.ID, applied); err != nil {
			return nil, err
		}
		result.Invoice = invoice
		result.AppliedAmount = applied
	}

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	// Every payment replenishes the prepaid balance that usage debits
	// draw from. Invoice application above only tracks settlement.
	if err := s.tenantRepo.AdjustBalance(ctx, input.TenantID, input.Amount); err != nil {
		return nil, fmt.Errorf("failed to credit tenant balance: %w", err)
	}

	s.appendPaymentActivity(ctx, input.TenantID, payment, result)

	s.logger.Info("payment recorded",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("amount", input.Amount.String()),
		zap.String("applied", result.AppliedAmount.String()),
		zap.String("credited", result.CreditedToBalance.String()))

	return result, nil
}

// applyToInvoice applies the payment amount under optimistic locking,
// reloading and retrying on version conflicts
func (s *PaymentService) applyToInvoice(ctx context.Context, invoiceID, tenantID uuid.UUID, amount valueobject.Money) (*billing.Invoice, decimal.Decimal, error) {
	var lastErr error
	for attempt := 0; attempt < saveLockRetries; attempt++ {
		invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if invoice.TenantID != tenantID {
			return nil, decimal.Zero, shared.NewDomainError("INVOICE_TENANT_MISMATCH", "Invoice belongs to a different tenant")
		}

		wasOverdue := invoice.IsOverdue()
		applied, err := invoice.ApplyPayment(amount)
		if err != nil {
			return nil, decimal.Zero, err
		}

		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
			return nil, decimal.Zero, fmt.Errorf("failed to save invoice: %w", err)
		}

		if wasOverdue && invoice.IsPaid() {
			s.logger.Info("overdue invoice settled",
				zap.String("invoice_number", invoice.InvoiceNumber),
				zap.String("tenant_id", tenantID.String()))
		}
		return invoice, applied.Amount(), nil
	}
	return nil, decimal.Zero, fmt.Errorf("failed to apply payment after %d attempts: %w", saveLockRetries, lastErr)
}

func (s *PaymentService) appendPaymentActivity(ctx context.Context, tenantID uuid.UUID, payment *billing.Payment, result *RecordPaymentResult) {
	entry, err := tenant.NewActivityLog(tenantID, tenant.ActivityPaymentReceived,
		fmt.Sprintf("Payment %s received (%s)", payment.PaymentNumber, payment.Amount.StringFixed(2)))
	if err != nil {
		s.logger.Error("failed to build activity entry", zap.Error(err))
		return
	}
	entry.WithDetail("payment_id", payment.ID.String()).
		WithDetail("amount", payment.Amount.String()).
		WithDetail("method", payment.Method.String())
	if result.Invoice != nil {
		entry.WithDetail("invoice_number", result.Invoice.InvoiceNumber).
			WithDetail("applied", result.AppliedAmount.String())
	}
	if err := s.activityRepo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append activity", zap.Error(err))
	}
}

// GetPayment retrieves one payment by id
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	return s.paymentRepo.FindByID(ctx, id)
}

// ListPayments retrieves payments matching the filter
func (s *PaymentService) ListPayments(ctx context.Context, filter billing.PaymentFilter) ([]*billing.Payment, int64, error) {
	return s.paymentRepo.FindAll(ctx, filter)
}
