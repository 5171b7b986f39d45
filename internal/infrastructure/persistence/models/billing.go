package models

import (
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice domain aggregate.
// The (tenant_id, period_start, period_end) unique index makes invoice
// generation idempotent per billing period.
type InvoiceModel struct {
	AggregateModel
	// TenantID is declared here rather than via TenantAggregateModel so it
	// can anchor the composite period uniqueness index.
	TenantID        uuid.UUID             `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoice_tenant_period,priority:1"`
	InvoiceNumber   string                `gorm:"type:varchar(30);not null;uniqueIndex:idx_invoice_number"`
	Status          billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	PeriodStart     time.Time             `gorm:"not null;uniqueIndex:idx_invoice_tenant_period,priority:2"`
	PeriodEnd       time.Time             `gorm:"not null;uniqueIndex:idx_invoice_tenant_period,priority:3"`
	DueDate         time.Time             `gorm:"not null;index"`
	Subtotal        decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate         decimal.Decimal       `gorm:"type:decimal(8,4);not null;default:0"`
	TaxAmount       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Total           decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	LineItems       billing.LineItems     `gorm:"type:jsonb"`
	UsageSummary    billing.UsageSummary  `gorm:"type:jsonb"`
	StripeInvoiceID string                `gorm:"type:varchar(100);index"`
	PaidAt          *time.Time
	OverdueAt       *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		InvoiceNumber:   m.InvoiceNumber,
		Status:          m.Status,
		PeriodStart:     m.PeriodStart,
		PeriodEnd:       m.PeriodEnd,
		DueDate:         m.DueDate,
		Subtotal:        m.Subtotal,
		TaxRate:         m.TaxRate,
		TaxAmount:       m.TaxAmount,
		Total:           m.Total,
		PaidAmount:      m.PaidAmount,
		LineItems:       m.LineItems,
		UsageSummary:    m.UsageSummary,
		StripeInvoiceID: m.StripeInvoiceID,
		PaidAt:          m.PaidAt,
		OverdueAt:       m.OverdueAt,
		CancelledAt:     m.CancelledAt,
		CancelReason:    m.CancelReason,
	}
	m.PopulateAggregateRoot(&inv.BaseAggregateRoot)
	inv.TenantID = m.TenantID
	return inv
}

// FromDomain populates the persistence model from a domain Invoice aggregate.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.TenantID = inv.TenantID
	m.InvoiceNumber = inv.InvoiceNumber
	m.Status = inv.Status
	m.PeriodStart = inv.PeriodStart
	m.PeriodEnd = inv.PeriodEnd
	m.DueDate = inv.DueDate
	m.Subtotal = inv.Subtotal
	m.TaxRate = inv.TaxRate
	m.TaxAmount = inv.TaxAmount
	m.Total = inv.Total
	m.PaidAmount = inv.PaidAmount
	m.LineItems = inv.LineItems
	m.UsageSummary = inv.UsageSummary
	m.StripeInvoiceID = inv.StripeInvoiceID
	m.PaidAt = inv.PaidAt
	m.OverdueAt = inv.OverdueAt
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice aggregate.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// PaymentModel is the persistence model for the Payment domain aggregate.
type PaymentModel struct {
	TenantAggregateModel
	PaymentNumber string                `gorm:"type:varchar(30);not null;uniqueIndex:idx_payment_number"`
	InvoiceID     *uuid.UUID            `gorm:"type:uuid;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	AppliedAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Method        billing.PaymentMethod `gorm:"type:varchar(20);not null"`
	Status        billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'completed';index"`
	Reference     string                `gorm:"type:varchar(100);index"`
	Notes         string                `gorm:"type:text"`
	CompletedAt   *time.Time
	RefundedAt    *time.Time
	RefundReason  string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment aggregate.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		PaymentNumber: m.PaymentNumber,
		InvoiceID:     m.InvoiceID,
		Amount:        m.Amount,
		AppliedAmount: m.AppliedAmount,
		Method:        m.Method,
		Status:        m.Status,
		Reference:     m.Reference,
		Notes:         m.Notes,
		CompletedAt:   m.CompletedAt,
		RefundedAt:    m.RefundedAt,
		RefundReason:  m.RefundReason,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Payment aggregate.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.InvoiceID = p.InvoiceID
	m.Amount = p.Amount
	m.AppliedAmount = p.AppliedAmount
	m.Method = p.Method
	m.Status = p.Status
	m.Reference = p.Reference
	m.Notes = p.Notes
	m.CompletedAt = p.CompletedAt
	m.RefundedAt = p.RefundedAt
	m.RefundReason = p.RefundReason
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment aggregate.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// SequenceModel backs gapless per-year document numbering. One row per
// (scope, year); the counter is advanced with a row-locking UPDATE so
// two generators can never draw the same number.
type SequenceModel struct {
	Scope     string    `gorm:"type:varchar(20);not null;primaryKey"`
	Year      int       `gorm:"not null;primaryKey"`
	Counter   int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceModel) TableName() string {
	return "number_sequences"
}
