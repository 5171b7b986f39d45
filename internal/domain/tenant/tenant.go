package tenant

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the status of a tenant account
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended" // Suspended due to repeated overdue invoices
	StatusInactive  Status = "inactive"
)

// IsValid checks if the status is a valid tenant Status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusInactive:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// BillingCycle represents how often a tenant is invoiced
type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleAnnual    BillingCycle = "annual"
)

// IsValid checks if the billing cycle is valid
func (c BillingCycle) IsValid() bool {
	switch c {
	case BillingCycleMonthly, BillingCycleQuarterly, BillingCycleAnnual:
		return true
	}
	return false
}

// NotificationPrefs holds a tenant's opt-in notification settings
type NotificationPrefs struct {
	LowBalanceAlerts bool `json:"low_balance_alerts"`
	HighUsageAlerts  bool `json:"high_usage_alerts"`
	InvoiceEmails    bool `json:"invoice_emails"`
}

// DefaultNotificationPrefs returns the default notification settings for a new tenant
func DefaultNotificationPrefs() NotificationPrefs {
	return NotificationPrefs{
		LowBalanceAlerts: true,
		HighUsageAlerts:  true,
		InvoiceEmails:    true,
	}
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p NotificationPrefs) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *NotificationPrefs) Scan(value interface{}) error {
	if value == nil {
		*p = DefaultNotificationPrefs()
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan NotificationPrefs: unsupported type")
	}

	if len(bytes) == 0 {
		*p = DefaultNotificationPrefs()
		return nil
	}

	return json.Unmarshal(bytes, p)
}

var tenantCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{1,49}$`)

// Tenant represents a billed customer account. It is the aggregate root
// for account state: status, billing cycle, credit limit and the running
// balance. The balance is mutated only through atomic repository
// increments, never by read-modify-write on the aggregate.
type Tenant struct {
	shared.BaseAggregateRoot
	Code              string
	Name              string
	Status            Status
	BillingCycle      BillingCycle
	CreditLimit       decimal.Decimal
	Balance           decimal.Decimal
	ContactName       string
	ContactEmail      string
	ContactPhone      string
	NotificationPrefs NotificationPrefs
	StripeCustomerID  string
	SuspendedAt       *time.Time
	SuspendReason     string
	Notes             string
}

// NewTenant creates a new tenant account with required fields
func NewTenant(code, name string) (*Tenant, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !tenantCodePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_TENANT_CODE", "Tenant code must be 2-50 uppercase alphanumeric characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot exceed 200 characters")
	}

	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Status:            StatusActive,
		BillingCycle:      BillingCycleMonthly,
		CreditLimit:       decimal.Zero,
		Balance:           decimal.Zero,
		NotificationPrefs: DefaultNotificationPrefs(),
	}, nil
}

// Suspend marks the tenant as suspended with a reason
func (t *Tenant) Suspend(reason string) error {
	if t.Status == StatusSuspended {
		return shared.NewDomainError("INVALID_STATE", "Tenant is already suspended")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Suspension reason is required")
	}

	now := time.Now()
	t.Status = StatusSuspended
	t.SuspendedAt = &now
	t.SuspendReason = reason
	t.UpdatedAt = now
	t.IncrementVersion()

	return nil
}

// Activate reactivates a suspended or inactive tenant
func (t *Tenant) Activate() error {
	if t.Status == StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Tenant is already active")
	}

	t.Status = StatusActive
	t.SuspendedAt = nil
	t.SuspendReason = ""
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// Deactivate marks the tenant as inactive (offboarded)
func (t *Tenant) Deactivate() error {
	if t.Status == StatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Tenant is already inactive")
	}

	t.Status = StatusInactive
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// SetBillingCycle updates the billing cycle
func (t *Tenant) SetBillingCycle(cycle BillingCycle) error {
	if !cycle.IsValid() {
		return shared.NewDomainError("INVALID_BILLING_CYCLE", "Billing cycle is not valid")
	}
	t.BillingCycle = cycle
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// SetCreditLimit updates the credit limit
func (t *Tenant) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	t.CreditLimit = limit
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// SetContact sets the tenant's contact information
func (t *Tenant) SetContact(name, email, phone string) error {
	if name != "" && len(name) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if email != "" && len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if phone != "" && len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}

	t.ContactName = name
	t.ContactEmail = email
	t.ContactPhone = phone
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// SetNotificationPrefs updates the notification opt-in settings
func (t *Tenant) SetNotificationPrefs(prefs NotificationPrefs) {
	t.NotificationPrefs = prefs
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// IsActive returns true if the tenant is active
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// IsSuspended returns true if the tenant is suspended
func (t *Tenant) IsSuspended() bool {
	return t.Status == StatusSuspended
}

// IsOverCreditLimit returns true if the negative balance exceeds the credit limit
func (t *Tenant) IsOverCreditLimit() bool {
	if t.CreditLimit.IsZero() {
		return false
	}
	return t.Balance.Neg().GreaterThan(t.CreditLimit)
}
