package tenant

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// ActivityType identifies the kind of state-changing event being audited
type ActivityType string

const (
	ActivityClientCreated     ActivityType = "client_created"
	ActivityClientSuspended   ActivityType = "client_suspended"
	ActivityClientActivated   ActivityType = "client_activated"
	ActivityNumberProvisioned ActivityType = "number_provisioned"
	ActivityNumberReleased    ActivityType = "number_released"
	ActivityInvoiceGenerated  ActivityType = "invoice_generated"
	ActivityInvoiceOverdue    ActivityType = "invoice_overdue"
	ActivityPaymentReceived   ActivityType = "payment_received"
	ActivityLowBalanceAlert   ActivityType = "low_balance_alert"
	ActivityHighUsageAlert    ActivityType = "high_usage_alert"
)

// IsValid checks if the activity type is valid
func (t ActivityType) IsValid() bool {
	switch t {
	case ActivityClientCreated, ActivityClientSuspended, ActivityClientActivated,
		ActivityNumberProvisioned, ActivityNumberReleased,
		ActivityInvoiceGenerated, ActivityInvoiceOverdue,
		ActivityPaymentReceived, ActivityLowBalanceAlert, ActivityHighUsageAlert:
		return true
	}
	return false
}

// ActivityDetail holds structured context for an activity entry
type ActivityDetail map[string]any

// Value implements driver.Valuer interface for GORM to store as JSONB
func (d ActivityDetail) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (d *ActivityDetail) Scan(value interface{}) error {
	if value == nil {
		*d = make(ActivityDetail)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ActivityDetail: unsupported type")
	}

	if len(bytes) == 0 {
		*d = make(ActivityDetail)
		return nil
	}

	return json.Unmarshal(bytes, d)
}

// ActivityLog is an append-only audit record of a state-changing event.
// Entries are keyed by tenant and time for range queries; they are never
// updated or deleted.
type ActivityLog struct {
	shared.BaseEntity
	TenantID    uuid.UUID
	Type        ActivityType
	Description string
	Detail      ActivityDetail
	OccurredAt  time.Time
}

// NewActivityLog creates a new activity log entry
func NewActivityLog(tenantID uuid.UUID, activityType ActivityType, description string) (*ActivityLog, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if activityType == "" {
		return nil, shared.NewDomainError("INVALID_ACTIVITY_TYPE", "Activity type cannot be empty")
	}

	return &ActivityLog{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		Type:        activityType,
		Description: description,
		Detail:      make(ActivityDetail),
		OccurredAt:  time.Now(),
	}, nil
}

// WithDetail attaches a structured detail value to the entry
func (a *ActivityLog) WithDetail(key string, value any) *ActivityLog {
	if a.Detail == nil {
		a.Detail = make(ActivityDetail)
	}
	a.Detail[key] = value
	return a
}

// ActivityLogFilter holds filter options for activity queries
type ActivityLogFilter struct {
	Types    []ActivityType
	Start    *time.Time
	End      *time.Time
	Page     int
	PageSize int
}

// ActivityLogRepository defines the interface for activity log persistence
type ActivityLogRepository interface {
	// Append persists a new activity entry. Entries are append-only.
	Append(ctx context.Context, entry *ActivityLog) error

	// FindByTenant finds activity entries for a tenant, newest first
	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter ActivityLogFilter) ([]*ActivityLog, int64, error)

	// CountByTenantAndType counts entries of a type for a tenant in a time range
	CountByTenantAndType(ctx context.Context, tenantID uuid.UUID, activityType ActivityType, start, end time.Time) (int64, error)
}
