package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateTable holds the per-unit prices used to cost usage events.
// Call rates are per started minute, message rates per segment or media.
type RateTable struct {
	CallInboundPerMinute  decimal.Decimal
	CallOutboundPerMinute decimal.Decimal
	SMSInbound            decimal.Decimal
	SMSOutbound           decimal.Decimal
	MMSInbound            decimal.Decimal
	MMSOutbound           decimal.Decimal
}

// DefaultRateTable returns the standard price list
func DefaultRateTable() RateTable {
	return RateTable{
		CallInboundPerMinute:  decimal.RequireFromString("0.0085"),
		CallOutboundPerMinute: decimal.RequireFromString("0.013"),
		SMSInbound:            decimal.RequireFromString("0.0075"),
		SMSOutbound:           decimal.RequireFromString("0.0079"),
		MMSInbound:            decimal.RequireFromString("0.01"),
		MMSOutbound:           decimal.RequireFromString("0.02"),
	}
}

// CostFor prices a usage event. Calls bill whole minutes rounded up,
// messages bill per segment (SMS) or per message (MMS) with a minimum
// quantity of one.
func (r RateTable) CostFor(usageType telephony.UsageType, durationSeconds, quantity int64) decimal.Decimal {
	if quantity < 1 {
		quantity = 1
	}
	minutes := (durationSeconds + 59) / 60

	switch usageType {
	case telephony.UsageTypeCallInbound:
		return r.CallInboundPerMinute.Mul(decimal.NewFromInt(minutes))
	case telephony.UsageTypeCallOutbound:
		return r.CallOutboundPerMinute.Mul(decimal.NewFromInt(minutes))
	case telephony.UsageTypeSMSInbound:
		return r.SMSInbound.Mul(decimal.NewFromInt(quantity))
	case telephony.UsageTypeSMSOutbound:
		return r.SMSOutbound.Mul(decimal.NewFromInt(quantity))
	case telephony.UsageTypeMMSInbound:
		return r.MMSInbound.Mul(decimal.NewFromInt(quantity))
	case telephony.UsageTypeMMSOutbound:
		return r.MMSOutbound.Mul(decimal.NewFromInt(quantity))
	}
	return decimal.Zero
}

// Service records telephony usage and answers usage queries
type Service struct {
	numberRepo telephony.PhoneNumberRepository
	recordRepo telephony.UsageRecordRepository
	tenantRepo tenant.Repository
	alerts     *AlertService
	rates      RateTable
	logger     *zap.Logger
}

// NewService creates a new usage service
func NewService(
	numberRepo telephony.PhoneNumberRepository,
	recordRepo telephony.UsageRecordRepository,
	tenantRepo tenant.Repository,
	alerts *AlertService,
	rates RateTable,
	logger *zap.Logger,
) *Service {
	return &Service{
		numberRepo: numberRepo,
		recordRepo: recordRepo,
		tenantRepo: tenantRepo,
		alerts:     alerts,
		rates:      rates,
		logger:     logger,
	}
}

// RecordUsageInput describes one provider usage event
type RecordUsageInput struct {
	Number          string // our provisioned number, E.164
	Type            telephony.UsageType
	From            string
	To              string
	DurationSeconds int64
	Quantity        int64
	Cost            *decimal.Decimal // provider-reported price; nil bills by rate table
	ProviderRef     string
	OccurredAt      time.Time
	Metadata        map[string]any
}

// RecordUsageResult reports the stored record and whether this delivery
// was a duplicate of an earlier one
type RecordUsageResult struct {
	RecordID  uuid.UUID       `json:"record_id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	Cost      decimal.Decimal `json:"cost"`
	Duplicate bool            `json:"duplicate"`
}

// RecordUsage stores a usage event, charges the owning tenant and runs
// alert checks. Redelivery of the same provider reference is detected
// by the unique index on (class, provider_ref) and returns the original
// record without charging again; the balance decrement happens exactly
// once per reference.
func (s *Service) RecordUsage(ctx context.Context, input RecordUsageInput) (*RecordUsageResult, error) {
	number, err := s.numberRepo.FindByNumber(ctx, input.Number)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("UNKNOWN_NUMBER", fmt.Sprintf("No provisioned number %s", input.Number))
		}
		return nil, fmt.Errorf("failed to resolve number: %w", err)
	}
	if number.Status == telephony.NumberStatusReleased {
		return nil, shared.NewDomainError("NUMBER_RELEASED", "Usage reported for a released number")
	}

	// The provider's own price is authoritative when the callback
	// carries one; the rate table covers payloads without a price.
	cost := s.rates.CostFor(input.Type, input.DurationSeconds, input.Quantity)
	if input.Cost != nil {
		cost = *input.Cost
	}

	record, err := telephony.NewUsageRecord(number.TenantID, number.ID, input.Type, cost, input.ProviderRef)
	if err != nil {
		return nil, err
	}
	record.WithParties(input.From, input.To)
	if input.Type.IsCall() {
		record.WithDuration(input.DurationSeconds)
	} else {
		record.WithQuantity(max(input.Quantity, 1))
	}
	if !input.OccurredAt.IsZero() {
		record.WithOccurredAt(input.OccurredAt)
	}
	for k, v := range input.Metadata {
		record.WithMetadata(k, v)
	}

	if err := s.recordRepo.Save(ctx, record); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			existing, ferr := s.recordRepo.FindByProviderRef(ctx, input.Type.Class(), input.ProviderRef)
			if ferr != nil {
				return nil, fmt.Errorf("failed to load duplicate record: %w", ferr)
			}
			s.logger.Info("duplicate usage delivery ignored",
				zap.String("provider_ref", input.ProviderRef),
				zap.String("type", input.Type.String()))
			return &RecordUsageResult{
				RecordID:  existing.ID,
				TenantID:  existing.TenantID,
				Cost:      existing.Cost,
				Duplicate: true,
			}, nil
		}
		return nil, fmt.Errorf("failed to save usage record: %w", err)
	}

	if cost.IsPositive() {
		if err := s.tenantRepo.AdjustBalance(ctx, number.TenantID, cost.Neg()); err != nil {
			// The record is stored and the unique index will absorb the
			// retry, so the charge must not be lost silently.
			s.logger.Error("balance decrement failed after usage record save",
				zap.String("tenant_id", number.TenantID.String()),
				zap.String("record_id", record.ID.String()),
				zap.String("cost", cost.String()),
				zap.Error(err))
			return nil, fmt.Errorf("failed to charge tenant: %w", err)
		}
	}

	s.logger.Debug("usage recorded",
		zap.String("tenant_id", number.TenantID.String()),
		zap.String("type", input.Type.String()),
		zap.String("cost", cost.String()),
		zap.String("provider_ref", input.ProviderRef))

	if s.alerts != nil {
		s.alerts.CheckAfterUsage(ctx, number.TenantID)
	}

	return &RecordUsageResult{
		RecordID: record.ID,
		TenantID: number.TenantID,
		Cost:     cost,
	}, nil
}

// GetTenantUsage aggregates a tenant's usage over [start, end)
func (s *Service) GetTenantUsage(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*telephony.UsageStats, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !end.After(start) {
		return nil, shared.NewDomainError("INVALID_RANGE", "End must be after start")
	}

	if _, err := s.tenantRepo.FindByID(ctx, tenantID); err != nil {
		return nil, err
	}

	return s.recordRepo.AggregateByTenant(ctx, tenantID, start, end)
}

// PhoneNumberUsagePage is one page of a number's usage history
type PhoneNumberUsagePage struct {
	Records  []*telephony.UsageRecord `json:"records"`
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
}

// GetPhoneNumberUsage lists usage records for one phone number,
// newest first
func (s *Service) GetPhoneNumberUsage(ctx context.Context, phoneNumberID uuid.UUID, filter telephony.UsageRecordFilter) (*PhoneNumberUsagePage, error) {
	if _, err := s.numberRepo.FindByID(ctx, phoneNumberID); err != nil {
		return nil, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 1000 {
		filter.PageSize = 100
	}

	records, total, err := s.recordRepo.FindByPhoneNumber(ctx, phoneNumberID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}

	return &PhoneNumberUsagePage{
		Records:  records,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}
