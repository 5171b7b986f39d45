package billing

import (
	"fmt"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodACH    PaymentMethod = "ach"
	PaymentMethodWire   PaymentMethod = "wire"
	PaymentMethodCheck  PaymentMethod = "check"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCredit PaymentMethod = "credit"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodACH, PaymentMethodWire,
		PaymentMethodCheck, PaymentMethodCash, PaymentMethodCredit:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Payment records money received from a tenant. A payment may target a
// specific invoice or stand alone as a balance top-up. AppliedAmount is
// the portion applied to the invoice; any excess is credited to the
// tenant balance.
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber string
	InvoiceID     *uuid.UUID
	Amount        decimal.Decimal
	AppliedAmount decimal.Decimal
	Method        PaymentMethod
	Status        PaymentStatus
	Reference     string
	Notes         string
	CompletedAt   *time.Time
	RefundedAt    *time.Time
	RefundReason  string
}

// NewPayment creates a completed payment. Payments arrive already
// settled (webhook or operator entry), so completed is the initial
// status; pending exists for future gateway-initiated flows.
func NewPayment(
	tenantID uuid.UUID,
	paymentNumber string,
	amount valueobject.Money,
	method PaymentMethod,
) (*Payment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", fmt.Sprintf("Invalid payment method: %s", method))
	}

	now := time.Now()
	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       paymentNumber,
		Amount:              amount.Amount(),
		AppliedAmount:       decimal.Zero,
		Method:              method,
		Status:              PaymentStatusCompleted,
		CompletedAt:         &now,
	}, nil
}

// AttachInvoice links the payment to the invoice it pays down
func (p *Payment) AttachInvoice(invoiceID uuid.UUID, applied decimal.Decimal) error {
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if applied.IsNegative() || applied.GreaterThan(p.Amount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Applied amount must be between zero and the payment amount")
	}

	p.InvoiceID = &invoiceID
	p.AppliedAmount = applied
	p.UpdatedAt = time.Now()
	return nil
}

// SetReference stores an external reference such as a check number or
// a Stripe payment intent id
func (p *Payment) SetReference(reference string) {
	p.Reference = reference
	p.UpdatedAt = time.Now()
}

// SetNotes stores operator notes on the payment
func (p *Payment) SetNotes(notes string) {
	p.Notes = notes
	p.UpdatedAt = time.Now()
}

// Refund marks a completed payment as refunded
func (p *Payment) Refund(reason string) error {
	if p.Status != PaymentStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refund payment in %s status", p.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Refund reason is required")
	}

	now := time.Now()
	p.Status = PaymentStatusRefunded
	p.RefundedAt = &now
	p.RefundReason = reason
	p.UpdatedAt = now
	p.IncrementVersion()

	return nil
}

// ExcessAmount returns the portion of the payment not applied to an
// invoice, credited to the tenant balance
func (p *Payment) ExcessAmount() decimal.Decimal {
	return p.Amount.Sub(p.AppliedAmount)
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Amount)
}
