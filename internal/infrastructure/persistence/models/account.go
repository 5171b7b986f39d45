package models

import (
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantModel is the persistence model for the Tenant domain aggregate.
type TenantModel struct {
	AggregateModel
	Code              string                   `gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_code"`
	Name              string                   `gorm:"type:varchar(200);not null"`
	Status            tenant.Status            `gorm:"type:varchar(20);not null;default:'active';index"`
	BillingCycle      tenant.BillingCycle      `gorm:"type:varchar(20);not null;default:'monthly'"`
	CreditLimit       decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Balance           decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	ContactName       string                   `gorm:"type:varchar(100)"`
	ContactEmail      string                   `gorm:"type:varchar(200);index"`
	ContactPhone      string                   `gorm:"type:varchar(50)"`
	NotificationPrefs tenant.NotificationPrefs `gorm:"type:jsonb"`
	StripeCustomerID  string                   `gorm:"type:varchar(100);index"`
	SuspendedAt       *time.Time
	SuspendReason     string `gorm:"type:text"`
	Notes             string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant aggregate.
func (m *TenantModel) ToDomain() *tenant.Tenant {
	t := &tenant.Tenant{
		Code:              m.Code,
		Name:              m.Name,
		Status:            m.Status,
		BillingCycle:      m.BillingCycle,
		CreditLimit:       m.CreditLimit,
		Balance:           m.Balance,
		ContactName:       m.ContactName,
		ContactEmail:      m.ContactEmail,
		ContactPhone:      m.ContactPhone,
		NotificationPrefs: m.NotificationPrefs,
		StripeCustomerID:  m.StripeCustomerID,
		SuspendedAt:       m.SuspendedAt,
		SuspendReason:     m.SuspendReason,
		Notes:             m.Notes,
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	return t
}

// FromDomain populates the persistence model from a domain Tenant aggregate.
func (m *TenantModel) FromDomain(t *tenant.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Code = t.Code
	m.Name = t.Name
	m.Status = t.Status
	m.BillingCycle = t.BillingCycle
	m.CreditLimit = t.CreditLimit
	m.Balance = t.Balance
	m.ContactName = t.ContactName
	m.ContactEmail = t.ContactEmail
	m.ContactPhone = t.ContactPhone
	m.NotificationPrefs = t.NotificationPrefs
	m.StripeCustomerID = t.StripeCustomerID
	m.SuspendedAt = t.SuspendedAt
	m.SuspendReason = t.SuspendReason
	m.Notes = t.Notes
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant aggregate.
func TenantModelFromDomain(t *tenant.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// ActivityLogModel is the persistence model for the ActivityLog domain entity.
// Rows are append-only.
type ActivityLogModel struct {
	BaseModel
	TenantID    uuid.UUID             `gorm:"type:uuid;not null;index:idx_activity_tenant_time,priority:1"`
	Type        tenant.ActivityType   `gorm:"type:varchar(50);not null;index"`
	Description string                `gorm:"type:text"`
	Detail      tenant.ActivityDetail `gorm:"type:jsonb"`
	OccurredAt  time.Time             `gorm:"not null;index:idx_activity_tenant_time,priority:2,sort:desc"`
}

// TableName returns the table name for GORM
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// ToDomain converts the persistence model to a domain ActivityLog entity.
func (m *ActivityLogModel) ToDomain() *tenant.ActivityLog {
	return &tenant.ActivityLog{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:    m.TenantID,
		Type:        m.Type,
		Description: m.Description,
		Detail:      m.Detail,
		OccurredAt:  m.OccurredAt,
	}
}

// FromDomain populates the persistence model from a domain ActivityLog entity.
func (m *ActivityLogModel) FromDomain(a *tenant.ActivityLog) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.TenantID = a.TenantID
	m.Type = a.Type
	m.Description = a.Description
	m.Detail = a.Detail
	m.OccurredAt = a.OccurredAt
}

// ActivityLogModelFromDomain creates a new persistence model from a domain ActivityLog entity.
func ActivityLogModelFromDomain(a *tenant.ActivityLog) *ActivityLogModel {
	m := &ActivityLogModel{}
	m.FromDomain(a)
	return m
}
