package telephony

import (
	"context"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PhoneNumberRepository defines the interface for phone number persistence
type PhoneNumberRepository interface {
	// FindByID finds a phone number by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PhoneNumber, error)

	// FindByNumber finds a phone number by its E.164 string
	FindByNumber(ctx context.Context, number string) (*PhoneNumber, error)

	// FindByTenant finds all phone numbers owned by a tenant
	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PhoneNumber, error)

	// FindActiveByTenant finds the active numbers owned by a tenant
	FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]PhoneNumber, error)

	// Save creates or updates a phone number
	Save(ctx context.Context, number *PhoneNumber) error

	// SaveWithLock saves with optimistic locking on the version column
	SaveWithLock(ctx context.Context, number *PhoneNumber) error

	// CountByTenant counts phone numbers owned by a tenant
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// UsageRecordFilter defines filtering options for usage record queries
type UsageRecordFilter struct {
	Start    *time.Time
	End      *time.Time
	Types    []UsageType
	Page     int
	PageSize int
}

// DefaultUsageRecordFilter returns a filter with default values
func DefaultUsageRecordFilter() UsageRecordFilter {
	return UsageRecordFilter{
		Page:     1,
		PageSize: 100,
	}
}

// WithTimeRange sets the half-open [start, end) window for the filter
func (f UsageRecordFilter) WithTimeRange(start, end time.Time) UsageRecordFilter {
	f.Start = &start
	f.End = &end
	return f
}

// WithTypes sets the usage types filter
func (f UsageRecordFilter) WithTypes(types ...UsageType) UsageRecordFilter {
	f.Types = types
	return f
}

// UsageRecordRepository defines the interface for persisting and
// querying usage records. Records are append-only; there is no update
// or delete beyond retention cleanup.
type UsageRecordRepository interface {
	// Save persists a new usage record. A record whose provider
	// reference already exists within the same usage class fails with
	// shared.ErrAlreadyExists so webhook retries never double-charge.
	Save(ctx context.Context, record *UsageRecord) error

	// FindByID retrieves a usage record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*UsageRecord, error)

	// FindByProviderRef retrieves a usage record by class and provider reference
	FindByProviderRef(ctx context.Context, class UsageClass, providerRef string) (*UsageRecord, error)

	// FindByPhoneNumber retrieves usage records for a phone number with
	// filtering and pagination, newest first, plus the unpaged total
	FindByPhoneNumber(ctx context.Context, phoneNumberID uuid.UUID, filter UsageRecordFilter) ([]*UsageRecord, int64, error)

	// AggregateByTenant computes usage statistics for a tenant over
	// the half-open window [start, end), grouped by type and by number
	AggregateByTenant(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*UsageStats, error)

	// SumCostByTenant sums the usage cost for a tenant over [start, end)
	SumCostByTenant(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (decimal.Decimal, error)

	// DeleteOlderThan removes usage records older than the given time
	// (data retention only; billing periods must be closed first)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
