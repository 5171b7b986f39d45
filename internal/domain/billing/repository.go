package billing

import (
	"context"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceFilter defines filter criteria for invoice queries
type InvoiceFilter struct {
	shared.Filter
	TenantID *uuid.UUID
	Status   *InvoiceStatus
	Year     *int
}

// NewInvoiceFilter creates a filter with default pagination
func NewInvoiceFilter() InvoiceFilter {
	return InvoiceFilter{Filter: shared.DefaultFilter()}
}

// WithTenant restricts the filter to one tenant
func (f InvoiceFilter) WithTenant(tenantID uuid.UUID) InvoiceFilter {
	f.TenantID = &tenantID
	return f
}

// WithStatus restricts the filter to one status
func (f InvoiceFilter) WithStatus(status InvoiceStatus) InvoiceFilter {
	f.Status = &status
	return f
}

// TenantOverdueCount pairs a tenant with its current overdue invoice count
type TenantOverdueCount struct {
	TenantID uuid.UUID
	Count    int64
}

// InvoiceRepository defines the persistence interface for invoices
type InvoiceRepository interface {
	// FindByID retrieves an invoice by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber retrieves an invoice by its invoice number
	FindByNumber(ctx context.Context, number string) (*Invoice, error)

	// FindByStripeInvoiceID retrieves an invoice by its mirrored
	// provider invoice id, or shared.ErrNotFound
	FindByStripeInvoiceID(ctx context.Context, stripeInvoiceID string) (*Invoice, error)

	// FindAll retrieves invoices matching the filter with total count
	FindAll(ctx context.Context, filter InvoiceFilter) ([]*Invoice, int64, error)

	// FindByTenantAndPeriod retrieves the invoice covering exactly the
	// given period for a tenant, or shared.ErrNotFound
	FindByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, periodStart, periodEnd time.Time) (*Invoice, error)

	// FindPendingDueBefore retrieves pending invoices whose due date is
	// strictly before the cutoff. Used by the overdue sweep.
	FindPendingDueBefore(ctx context.Context, cutoff time.Time) ([]*Invoice, error)

	// CountOverdueByTenant counts invoices currently in overdue status
	// for the given tenant
	CountOverdueByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// TenantsWithOverdueAtLeast lists tenants holding at least minCount
	// invoices currently in overdue status, with their counts
	TenantsWithOverdueAtLeast(ctx context.Context, minCount int64) ([]TenantOverdueCount, error)

	// Save persists an invoice (create or update)
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock persists an invoice with optimistic concurrency
	// control, returning shared.ErrConcurrencyConflict on a stale version
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}

// PaymentFilter defines filter criteria for payment queries
type PaymentFilter struct {
	shared.Filter
	TenantID  *uuid.UUID
	InvoiceID *uuid.UUID
	Status    *PaymentStatus
}

// NewPaymentFilter creates a filter with default pagination
func NewPaymentFilter() PaymentFilter {
	return PaymentFilter{Filter: shared.DefaultFilter()}
}

// WithTenant restricts the filter to one tenant
func (f PaymentFilter) WithTenant(tenantID uuid.UUID) PaymentFilter {
	f.TenantID = &tenantID
	return f
}

// WithInvoice restricts the filter to payments against one invoice
func (f PaymentFilter) WithInvoice(invoiceID uuid.UUID) PaymentFilter {
	f.InvoiceID = &invoiceID
	return f
}

// PaymentRepository defines the persistence interface for payments
type PaymentRepository interface {
	// FindByID retrieves a payment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByNumber retrieves a payment by its payment number
	FindByNumber(ctx context.Context, number string) (*Payment, error)

	// FindAll retrieves payments matching the filter with total count
	FindAll(ctx context.Context, filter PaymentFilter) ([]*Payment, int64, error)

	// Save persists a payment (create or update)
	Save(ctx context.Context, payment *Payment) error
}

// Number sequence scopes. Each scope has an independent counter per year.
const (
	SequenceScopeInvoice = "invoice"
	SequenceScopePayment = "payment"
)

// SequenceRepository allocates document numbers. NextNumber must be
// atomic under concurrent callers: two allocations for the same scope
// and year never return the same value, and values within a year are
// gapless under successful commits.
type SequenceRepository interface {
	NextNumber(ctx context.Context, scope string, year int) (int64, error)
}
