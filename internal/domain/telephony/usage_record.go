package telephony

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metadata holds additional provider context about a usage record
type Metadata map[string]any

// Value implements driver.Valuer interface for GORM to store as JSONB
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Metadata: unsupported type")
	}

	if len(bytes) == 0 {
		*m = make(Metadata)
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// UsageRecord is an immutable record of a single billable telephony
// event. Once created, usage records are never modified or deleted;
// corrections are made with new adjustment records. The tenant ID is
// denormalized from the owning phone number for query locality.
type UsageRecord struct {
	shared.BaseEntity
	TenantID        uuid.UUID
	PhoneNumberID   uuid.UUID
	Type            UsageType
	From            string
	To              string
	DurationSeconds int64 // calls only
	Quantity        int64 // message segments / media count
	Cost            decimal.Decimal
	ProviderRef     string // provider call/message SID, deduplication key
	OccurredAt      time.Time
	Metadata        Metadata
}

// NewUsageRecord creates a new usage record with validation
func NewUsageRecord(
	tenantID uuid.UUID,
	phoneNumberID uuid.UUID,
	usageType UsageType,
	cost decimal.Decimal,
	providerRef string,
) (*UsageRecord, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if phoneNumberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Phone number ID cannot be empty")
	}
	if !usageType.IsValid() {
		return nil, shared.NewDomainError("INVALID_USAGE_TYPE", "Invalid usage type")
	}
	if cost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}
	if providerRef == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER_REF", "Provider reference cannot be empty")
	}

	return &UsageRecord{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		PhoneNumberID: phoneNumberID,
		Type:          usageType,
		Cost:          cost,
		ProviderRef:   providerRef,
		OccurredAt:    time.Now(),
		Metadata:      make(Metadata),
	}, nil
}

// WithParties sets the from/to numbers
func (r *UsageRecord) WithParties(from, to string) *UsageRecord {
	r.From = from
	r.To = to
	return r
}

// WithDuration sets the call duration in seconds
func (r *UsageRecord) WithDuration(seconds int64) *UsageRecord {
	r.DurationSeconds = seconds
	return r
}

// WithQuantity sets the message quantity
func (r *UsageRecord) WithQuantity(quantity int64) *UsageRecord {
	r.Quantity = quantity
	return r
}

// WithOccurredAt sets when the event happened at the provider
func (r *UsageRecord) WithOccurredAt(t time.Time) *UsageRecord {
	r.OccurredAt = t
	return r
}

// WithMetadata adds provider metadata to the record
func (r *UsageRecord) WithMetadata(key string, value any) *UsageRecord {
	if r.Metadata == nil {
		r.Metadata = make(Metadata)
	}
	r.Metadata[key] = value
	return r
}

// Minutes returns the call duration rounded up to whole billing minutes
func (r *UsageRecord) Minutes() int64 {
	if r.DurationSeconds <= 0 {
		return 0
	}
	return (r.DurationSeconds + 59) / 60
}
