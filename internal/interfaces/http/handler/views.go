package handler

import (
	"time"

	billingapp "github.com/BoweryJG/osbackend-sub001/internal/application/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/shopspring/decimal"
)

// Response views for domain aggregates. Domain entities carry no
// serialization concerns, so the wire shape is defined here.

// InvoiceView is the wire representation of an invoice
type InvoiceView struct {
	ID              string                `json:"id"`
	TenantID        string                `json:"tenant_id"`
	InvoiceNumber   string                `json:"invoice_number"`
	Status          string                `json:"status"`
	PeriodStart     time.Time             `json:"period_start"`
	PeriodEnd       time.Time             `json:"period_end"`
	DueDate         time.Time             `json:"due_date"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TaxRate         decimal.Decimal       `json:"tax_rate"`
	TaxAmount       decimal.Decimal       `json:"tax_amount"`
	Total           decimal.Decimal       `json:"total"`
	PaidAmount      decimal.Decimal       `json:"paid_amount"`
	LineItems       billing.LineItems     `json:"line_items"`
	UsageSummary    billing.UsageSummary  `json:"usage_summary"`
	StripeInvoiceID string                `json:"stripe_invoice_id,omitempty"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	OverdueAt       *time.Time            `json:"overdue_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewInvoiceView maps an invoice aggregate to its wire form
func NewInvoiceView(inv *billing.Invoice) InvoiceView {
	return InvoiceView{
		ID:              inv.ID.String(),
		TenantID:        inv.TenantID.String(),
		InvoiceNumber:   inv.InvoiceNumber,
		Status:          inv.Status.String(),
		PeriodStart:     inv.PeriodStart,
		PeriodEnd:       inv.PeriodEnd,
		DueDate:         inv.DueDate,
		Subtotal:        inv.Subtotal,
		TaxRate:         inv.TaxRate,
		TaxAmount:       inv.TaxAmount,
		Total:           inv.Total,
		PaidAmount:      inv.PaidAmount,
		LineItems:       inv.LineItems,
		UsageSummary:    inv.UsageSummary,
		StripeInvoiceID: inv.StripeInvoiceID,
		PaidAt:          inv.PaidAt,
		OverdueAt:       inv.OverdueAt,
		CancelledAt:     inv.CancelledAt,
		CancelReason:    inv.CancelReason,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

// NewInvoiceViews maps a slice of invoices
func NewInvoiceViews(invoices []*billing.Invoice) []InvoiceView {
	views := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, NewInvoiceView(inv))
	}
	return views
}

// PaymentView is the wire representation of a payment
type PaymentView struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	PaymentNumber string          `json:"payment_number"`
	InvoiceID     *string         `json:"invoice_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	AppliedAmount decimal.Decimal `json:"applied_amount"`
	Method        string          `json:"method"`
	Status        string          `json:"status"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	RefundedAt    *time.Time      `json:"refunded_at,omitempty"`
	RefundReason  string          `json:"refund_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewPaymentView maps a payment aggregate to its wire form
func NewPaymentView(p *billing.Payment) PaymentView {
	view := PaymentView{
		ID:            p.ID.String(),
		TenantID:      p.TenantID.String(),
		PaymentNumber: p.PaymentNumber,
		Amount:        p.Amount,
		AppliedAmount: p.AppliedAmount,
		Method:        p.Method.String(),
		Status:        p.Status.String(),
		Reference:     p.Reference,
		Notes:         p.Notes,
		CompletedAt:   p.CompletedAt,
		RefundedAt:    p.RefundedAt,
		RefundReason:  p.RefundReason,
		CreatedAt:     p.CreatedAt,
	}
	if p.InvoiceID != nil {
		id := p.InvoiceID.String()
		view.InvoiceID = &id
	}
	return view
}

// NewPaymentViews maps a slice of payments
func NewPaymentViews(payments []*billing.Payment) []PaymentView {
	views := make([]PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, NewPaymentView(p))
	}
	return views
}

// PaymentResultView reports how a recorded payment was split
type PaymentResultView struct {
	Payment           PaymentView     `json:"payment"`
	Invoice           *InvoiceView    `json:"invoice,omitempty"`
	AppliedAmount     decimal.Decimal `json:"applied_amount"`
	CreditedToBalance decimal.Decimal `json:"credited_to_balance"`
}

// NewPaymentResultView maps a payment recording result
func NewPaymentResultView(result *billingapp.RecordPaymentResult) PaymentResultView {
	view := PaymentResultView{
		Payment:           NewPaymentView(result.Payment),
		AppliedAmount:     result.AppliedAmount,
		CreditedToBalance: result.CreditedToBalance,
	}
	if result.Invoice != nil {
		inv := NewInvoiceView(result.Invoice)
		view.Invoice = &inv
	}
	return view
}

// UsageRecordView is the wire representation of one usage record
type UsageRecordView struct {
	ID              string             `json:"id"`
	TenantID        string             `json:"tenant_id"`
	PhoneNumberID   string             `json:"phone_number_id"`
	Type            string             `json:"type"`
	From            string             `json:"from,omitempty"`
	To              string             `json:"to,omitempty"`
	DurationSeconds int64              `json:"duration_seconds,omitempty"`
	Quantity        int64              `json:"quantity,omitempty"`
	Cost            decimal.Decimal    `json:"cost"`
	ProviderRef     string             `json:"provider_ref"`
	OccurredAt      time.Time          `json:"occurred_at"`
	Metadata        telephony.Metadata `json:"metadata,omitempty"`
}

// NewUsageRecordViews maps a slice of usage records
func NewUsageRecordViews(records []*telephony.UsageRecord) []UsageRecordView {
	views := make([]UsageRecordView, 0, len(records))
	for _, r := range records {
		views = append(views, UsageRecordView{
			ID:              r.ID.String(),
			TenantID:        r.TenantID.String(),
			PhoneNumberID:   r.PhoneNumberID.String(),
			Type:            r.Type.String(),
			From:            r.From,
			To:              r.To,
			DurationSeconds: r.DurationSeconds,
			Quantity:        r.Quantity,
			Cost:            r.Cost,
			ProviderRef:     r.ProviderRef,
			OccurredAt:      r.OccurredAt,
			Metadata:        r.Metadata,
		})
	}
	return views
}

// ActivityView is the wire representation of one activity entry
type ActivityView struct {
	ID          string                `json:"id"`
	TenantID    string                `json:"tenant_id"`
	Type        string                `json:"type"`
	Description string                `json:"description"`
	Detail      tenant.ActivityDetail `json:"detail,omitempty"`
	OccurredAt  time.Time             `json:"occurred_at"`
}

// NewActivityViews maps a slice of activity entries
func NewActivityViews(entries []*tenant.ActivityLog) []ActivityView {
	views := make([]ActivityView, 0, len(entries))
	for _, e := range entries {
		views = append(views, ActivityView{
			ID:          e.ID.String(),
			TenantID:    e.TenantID.String(),
			Type:        string(e.Type),
			Description: e.Description,
			Detail:      e.Detail,
			OccurredAt:  e.OccurredAt,
		})
	}
	return views
}
