package telephony

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TypeStats holds aggregate figures for a single usage type
type TypeStats struct {
	Count           int64           `json:"count"`
	Cost            decimal.Decimal `json:"cost"`
	DurationSeconds int64           `json:"duration_seconds,omitempty"`
}

// NumberStats holds aggregate figures for a single phone number
type NumberStats struct {
	PhoneNumberID uuid.UUID       `json:"phone_number_id"`
	Number        string          `json:"number"`
	Calls         int64           `json:"calls"`
	Minutes       int64           `json:"minutes"`
	SMS           int64           `json:"sms"`
	MMS           int64           `json:"mms"`
	Cost          decimal.Decimal `json:"cost"`
}

// UsageStats is the aggregation of a tenant's usage over a half-open
// window [Start, End), grouped by usage type and by phone number.
// Totals are eventually consistent with records written mid-scan;
// individual records are never seen torn.
type UsageStats struct {
	TenantID  uuid.UUID               `json:"tenant_id"`
	Start     time.Time               `json:"start"`
	End       time.Time               `json:"end"`
	ByType    map[UsageType]TypeStats `json:"by_type"`
	ByNumber  []NumberStats           `json:"by_number"`
	TotalCost decimal.Decimal         `json:"total_cost"`
}

// NewUsageStats creates an empty stats result for a window
func NewUsageStats(tenantID uuid.UUID, start, end time.Time) *UsageStats {
	return &UsageStats{
		TenantID:  tenantID,
		Start:     start,
		End:       end,
		ByType:    make(map[UsageType]TypeStats),
		TotalCost: decimal.Zero,
	}
}

// TotalCalls returns the combined inbound and outbound call count
func (s *UsageStats) TotalCalls() int64 {
	return s.ByType[UsageTypeCallInbound].Count + s.ByType[UsageTypeCallOutbound].Count
}

// TotalMessages returns the combined SMS and MMS count
func (s *UsageStats) TotalMessages() int64 {
	return s.ByType[UsageTypeSMSInbound].Count + s.ByType[UsageTypeSMSOutbound].Count +
		s.ByType[UsageTypeMMSInbound].Count + s.ByType[UsageTypeMMSOutbound].Count
}

// TotalMinutes returns the call duration across both directions in
// whole minutes, rounded up per the billing convention
func (s *UsageStats) TotalMinutes() int64 {
	seconds := s.ByType[UsageTypeCallInbound].DurationSeconds + s.ByType[UsageTypeCallOutbound].DurationSeconds
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}
