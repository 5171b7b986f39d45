package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice.
// The state machine is one-directional:
// draft -> pending -> {paid | overdue | cancelled}, and overdue -> paid
// on late payment.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are allowed
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanApplyPayment returns true if payments can be applied in this status
func (s InvoiceStatus) CanApplyPayment() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusOverdue
}

// LineItemCategory classifies an invoice line item
type LineItemCategory string

const (
	LineItemCategoryPhoneRental LineItemCategory = "phone_rental"
	LineItemCategoryUsage       LineItemCategory = "usage"
	LineItemCategorySetupFee    LineItemCategory = "setup_fee"
	LineItemCategoryAdjustment  LineItemCategory = "adjustment"
)

// IsValid checks if the category is valid
func (c LineItemCategory) IsValid() bool {
	switch c {
	case LineItemCategoryPhoneRental, LineItemCategoryUsage,
		LineItemCategorySetupFee, LineItemCategoryAdjustment:
		return true
	}
	return false
}

// LineItem is a value object within the Invoice aggregate, stored as JSONB
type LineItem struct {
	Description string           `json:"description"`
	Quantity    int64            `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Amount      decimal.Decimal  `json:"amount"`
	Category    LineItemCategory `json:"category"`
}

// NewLineItem creates a line item with amount = quantity * unit price
func NewLineItem(description string, quantity int64, unitPrice decimal.Decimal, category LineItemCategory) (LineItem, error) {
	if description == "" {
		return LineItem{}, shared.NewDomainError("INVALID_LINE_ITEM", "Line item description cannot be empty")
	}
	if quantity <= 0 {
		return LineItem{}, shared.NewDomainError("INVALID_LINE_ITEM", "Line item quantity must be positive")
	}
	if !category.IsValid() {
		return LineItem{}, shared.NewDomainError("INVALID_LINE_ITEM", "Line item category is not valid")
	}

	return LineItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      unitPrice.Mul(decimal.NewFromInt(quantity)),
		Category:    category,
	}, nil
}

// LineItems is a slice of LineItem that implements GORM Scanner/Valuer for JSONB storage
type LineItems []LineItem

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(bytes) == 0 {
		*l = LineItems{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// UsageSummary is a point-in-time snapshot of the aggregated usage an
// invoice billed for, stored as JSONB. It is kept even if raw usage
// records are later purged by retention.
type UsageSummary struct {
	Calls     int64           `json:"calls"`
	Minutes   int64           `json:"minutes"`
	SMS       int64           `json:"sms"`
	MMS       int64           `json:"mms"`
	UsageCost decimal.Decimal `json:"usage_cost"`
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (u UsageSummary) Value() (driver.Value, error) {
	return json.Marshal(u)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (u *UsageSummary) Scan(value interface{}) error {
	if value == nil {
		*u = UsageSummary{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan UsageSummary: unsupported type")
	}

	if len(bytes) == 0 {
		*u = UsageSummary{}
		return nil
	}

	return json.Unmarshal(bytes, u)
}

// Invoice is the aggregate root for a tenant invoice. Invariants:
// subtotal equals the sum of line item amounts, tax equals
// subtotal * rate / 100 rounded to cents, total equals subtotal + tax,
// and 0 <= paid amount <= total with status paid exactly when
// paid amount >= total.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber   string
	Status          InvoiceStatus
	PeriodStart     time.Time
	PeriodEnd       time.Time
	DueDate         time.Time
	Subtotal        decimal.Decimal
	TaxRate         decimal.Decimal // percentage, e.g. 8.875
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
	PaidAmount      decimal.Decimal
	LineItems       LineItems
	UsageSummary    UsageSummary
	StripeInvoiceID string
	PaidAt          *time.Time
	OverdueAt       *time.Time
	CancelledAt     *time.Time
	CancelReason    string
}

// NewInvoice creates a draft invoice for a billing period
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	periodStart, periodEnd time.Time,
	taxRate decimal.Decimal,
	dueDate time.Time,
) (*Invoice, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if !periodEnd.After(periodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end must be after period start")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}
	if dueDate.Before(periodEnd) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before the period end")
	}

	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		Status:              InvoiceStatusDraft,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		DueDate:             dueDate,
		Subtotal:            decimal.Zero,
		TaxRate:             taxRate,
		TaxAmount:           decimal.Zero,
		Total:               decimal.Zero,
		PaidAmount:          decimal.Zero,
		LineItems:           LineItems{},
	}, nil
}

// AddLineItem appends a line item to a draft invoice
func (inv *Invoice) AddLineItem(item LineItem) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Line items can only be added to draft invoices")
	}
	inv.LineItems = append(inv.LineItems, item)
	return nil
}

// SetUsageSummary attaches the usage snapshot to a draft invoice
func (inv *Invoice) SetUsageSummary(summary UsageSummary) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Usage summary can only be set on draft invoices")
	}
	inv.UsageSummary = summary
	return nil
}

// Finalize computes the invoice arithmetic from its line items and
// transitions draft -> pending. The tax amount is rounded to whole
// cents half-up.
func (inv *Invoice) Finalize() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot finalize invoice in %s status", inv.Status))
	}

	subtotal := decimal.Zero
	for _, item := range inv.LineItems {
		subtotal = subtotal.Add(item.Amount)
	}

	inv.Subtotal = subtotal
	inv.TaxAmount = subtotal.Mul(inv.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
	inv.Total = inv.Subtotal.Add(inv.TaxAmount)
	inv.Status = InvoiceStatusPending
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// ApplyPayment applies a payment to the invoice and returns the amount
// actually applied. The applied amount is capped at the outstanding
// balance so paid amount never exceeds total; the caller credits any
// excess to the tenant balance. Transitions to paid exactly when
// paid amount reaches total, including overdue -> paid on late payment.
func (inv *Invoice) ApplyPayment(amount valueobject.Money) (valueobject.Money, error) {
	if !inv.Status.CanApplyPayment() {
		return valueobject.ZeroUSD(), shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.Status))
	}
	if !amount.IsPositive() {
		return valueobject.ZeroUSD(), shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	outstanding := inv.Total.Sub(inv.PaidAmount)
	applied := amount.Amount()
	if applied.GreaterThan(outstanding) {
		applied = outstanding
	}

	inv.PaidAmount = inv.PaidAmount.Add(applied)
	if inv.PaidAmount.GreaterThanOrEqual(inv.Total) {
		now := time.Now()
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &now
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return valueobject.NewMoneyUSD(applied), nil
}

// MarkOverdue transitions a pending invoice past its due date to
// overdue. Calling it on a non-pending invoice is an invalid state
// error so the daily sweep stays idempotent.
func (inv *Invoice) MarkOverdue(now time.Time) error {
	if inv.Status != InvoiceStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark invoice overdue in %s status", inv.Status))
	}
	if !now.After(inv.DueDate) {
		return shared.NewDomainError("INVALID_STATE", "Invoice is not past its due date")
	}

	inv.Status = InvoiceStatusOverdue
	inv.OverdueAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()

	return nil
}

// Cancel cancels an invoice that has no payments applied
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status != InvoiceStatusDraft && inv.Status != InvoiceStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	if inv.PaidAmount.GreaterThan(decimal.Zero) {
		return shared.NewDomainError("HAS_PAYMENTS", "Cannot cancel invoice with existing payments")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.UpdatedAt = now
	inv.IncrementVersion()

	return nil
}

// SetStripeInvoiceID stores the mirrored provider invoice id
func (inv *Invoice) SetStripeInvoiceID(id string) {
	inv.StripeInvoiceID = id
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// Outstanding returns the unpaid remainder of the invoice total
func (inv *Invoice) Outstanding() decimal.Decimal {
	return inv.Total.Sub(inv.PaidAmount)
}

// IsPaid returns true if the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsOverdue returns true if the invoice is in overdue status
func (inv *Invoice) IsOverdue() bool {
	return inv.Status == InvoiceStatusOverdue
}

// IsPastDue returns true if the invoice is unpaid and past its due date
func (inv *Invoice) IsPastDue(now time.Time) bool {
	return inv.Status == InvoiceStatusPending && now.After(inv.DueDate)
}

// GetTotalMoney returns the invoice total as Money
func (inv *Invoice) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.Total)
}

// GetOutstandingMoney returns the outstanding amount as Money
func (inv *Invoice) GetOutstandingMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.Outstanding())
}
