package telephony

import (
	"regexp"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NumberStatus represents the lifecycle status of a phone number
type NumberStatus string

const (
	NumberStatusActive    NumberStatus = "active"
	NumberStatusSuspended NumberStatus = "suspended"
	NumberStatusReleased  NumberStatus = "released"
)

// IsValid checks if the status is a valid NumberStatus
func (s NumberStatus) IsValid() bool {
	switch s {
	case NumberStatusActive, NumberStatusSuspended, NumberStatusReleased:
		return true
	}
	return false
}

// Capabilities holds the provider capability flags for a number
type Capabilities struct {
	Voice bool `json:"voice"`
	SMS   bool `json:"sms"`
	MMS   bool `json:"mms"`
	Fax   bool `json:"fax"`
}

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// PhoneNumber is a billable resource owned by exactly one tenant. It
// carries a recurring monthly fee that appears as a rental line item on
// every invoice covering a period it was active in. Released numbers
// stop accruing rental but keep their usage history.
type PhoneNumber struct {
	shared.TenantAggregateRoot
	Number       string
	FriendlyName string
	Status       NumberStatus
	MonthlyFee   decimal.Decimal
	Capabilities Capabilities
	ProviderSID  string
	ReleasedAt   *time.Time
}

// NewPhoneNumber creates a new phone number resource for a tenant
func NewPhoneNumber(tenantID uuid.UUID, number string, monthlyFee decimal.Decimal) (*PhoneNumber, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !e164Pattern.MatchString(number) {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Phone number must be in E.164 format")
	}
	if monthlyFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_FEE", "Monthly fee cannot be negative")
	}

	return &PhoneNumber{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		Status:              NumberStatusActive,
		MonthlyFee:          monthlyFee,
		Capabilities:        Capabilities{Voice: true, SMS: true},
	}, nil
}

// Suspend suspends the number (no new traffic, rental continues)
func (p *PhoneNumber) Suspend() error {
	if p.Status != NumberStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active numbers can be suspended")
	}
	p.Status = NumberStatusSuspended
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Reactivate returns a suspended number to active status
func (p *PhoneNumber) Reactivate() error {
	if p.Status != NumberStatusSuspended {
		return shared.NewDomainError("INVALID_STATE", "Only suspended numbers can be reactivated")
	}
	p.Status = NumberStatusActive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Release permanently releases the number back to the provider.
// Released numbers are excluded from invoice rental line items; usage
// history is retained.
func (p *PhoneNumber) Release() error {
	if p.Status == NumberStatusReleased {
		return shared.NewDomainError("INVALID_STATE", "Number is already released")
	}
	now := time.Now()
	p.Status = NumberStatusReleased
	p.ReleasedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	return nil
}

// IsActive returns true if the number is active
func (p *PhoneNumber) IsActive() bool {
	return p.Status == NumberStatusActive
}
