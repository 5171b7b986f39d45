package models

import (
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PhoneNumberModel is the persistence model for the PhoneNumber domain aggregate.
type PhoneNumberModel struct {
	TenantAggregateModel
	Number       string                 `gorm:"type:varchar(20);not null;uniqueIndex:idx_phone_number"`
	FriendlyName string                 `gorm:"type:varchar(100)"`
	Status       telephony.NumberStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	MonthlyFee   decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Voice        bool                   `gorm:"not null;default:true"`
	SMS          bool                   `gorm:"not null;default:true"`
	MMS          bool                   `gorm:"not null;default:false"`
	Fax          bool                   `gorm:"not null;default:false"`
	ProviderSID  string                 `gorm:"type:varchar(100);index"`
	ReleasedAt   *time.Time
}

// TableName returns the table name for GORM
func (PhoneNumberModel) TableName() string {
	return "phone_numbers"
}

// ToDomain converts the persistence model to a domain PhoneNumber aggregate.
func (m *PhoneNumberModel) ToDomain() *telephony.PhoneNumber {
	p := &telephony.PhoneNumber{
		Number:       m.Number,
		FriendlyName: m.FriendlyName,
		Status:       m.Status,
		MonthlyFee:   m.MonthlyFee,
		Capabilities: telephony.Capabilities{
			Voice: m.Voice,
			SMS:   m.SMS,
			MMS:   m.MMS,
			Fax:   m.Fax,
		},
		ProviderSID: m.ProviderSID,
		ReleasedAt:  m.ReleasedAt,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain PhoneNumber aggregate.
func (m *PhoneNumberModel) FromDomain(p *telephony.PhoneNumber) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.Number = p.Number
	m.FriendlyName = p.FriendlyName
	m.Status = p.Status
	m.MonthlyFee = p.MonthlyFee
	m.Voice = p.Capabilities.Voice
	m.SMS = p.Capabilities.SMS
	m.MMS = p.Capabilities.MMS
	m.Fax = p.Capabilities.Fax
	m.ProviderSID = p.ProviderSID
	m.ReleasedAt = p.ReleasedAt
}

// PhoneNumberModelFromDomain creates a new persistence model from a domain PhoneNumber aggregate.
func PhoneNumberModelFromDomain(p *telephony.PhoneNumber) *PhoneNumberModel {
	m := &PhoneNumberModel{}
	m.FromDomain(p)
	return m
}

// UsageRecordModel is the persistence model for the UsageRecord domain entity.
// Rows are append-only. The (class, provider_ref) unique index is the
// webhook deduplication guarantee: a retried delivery hits the index
// instead of creating a second charge.
type UsageRecordModel struct {
	BaseModel
	TenantID        uuid.UUID            `gorm:"type:uuid;not null;index:idx_usage_tenant_time,priority:1"`
	PhoneNumberID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	Type            telephony.UsageType  `gorm:"type:varchar(20);not null"`
	Class           telephony.UsageClass `gorm:"type:varchar(10);not null;uniqueIndex:idx_usage_class_ref,priority:1"`
	FromNumber      string               `gorm:"type:varchar(20)"`
	ToNumber        string               `gorm:"type:varchar(20)"`
	DurationSeconds int64                `gorm:"not null;default:0"`
	Quantity        int64                `gorm:"not null;default:0"`
	Cost            decimal.Decimal      `gorm:"type:decimal(18,6);not null;default:0"`
	ProviderRef     string               `gorm:"type:varchar(100);not null;uniqueIndex:idx_usage_class_ref,priority:2"`
	OccurredAt      time.Time            `gorm:"not null;index:idx_usage_tenant_time,priority:2,sort:desc"`
	Metadata        telephony.Metadata   `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (UsageRecordModel) TableName() string {
	return "usage_records"
}

// ToDomain converts the persistence model to a domain UsageRecord entity.
func (m *UsageRecordModel) ToDomain() *telephony.UsageRecord {
	return &telephony.UsageRecord{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:        m.TenantID,
		PhoneNumberID:   m.PhoneNumberID,
		Type:            m.Type,
		From:            m.FromNumber,
		To:              m.ToNumber,
		DurationSeconds: m.DurationSeconds,
		Quantity:        m.Quantity,
		Cost:            m.Cost,
		ProviderRef:     m.ProviderRef,
		OccurredAt:      m.OccurredAt,
		Metadata:        m.Metadata,
	}
}

// FromDomain populates the persistence model from a domain UsageRecord entity.
func (m *UsageRecordModel) FromDomain(r *telephony.UsageRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.TenantID = r.TenantID
	m.PhoneNumberID = r.PhoneNumberID
	m.Type = r.Type
	m.Class = r.Type.Class()
	m.FromNumber = r.From
	m.ToNumber = r.To
	m.DurationSeconds = r.DurationSeconds
	m.Quantity = r.Quantity
	m.Cost = r.Cost
	m.ProviderRef = r.ProviderRef
	m.OccurredAt = r.OccurredAt
	m.Metadata = r.Metadata
}

// UsageRecordModelFromDomain creates a new persistence model from a domain UsageRecord entity.
func UsageRecordModelFromDomain(r *telephony.UsageRecord) *UsageRecordModel {
	m := &UsageRecordModel{}
	m.FromDomain(r)
	return m
}
