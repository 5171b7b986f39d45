package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormUsageRecordRepository implements telephony.UsageRecordRepository using GORM
type GormUsageRecordRepository struct {
	db *gorm.DB
}

// NewGormUsageRecordRepository creates a new GormUsageRecordRepository
func NewGormUsageRecordRepository(db *gorm.DB) *GormUsageRecordRepository {
	return &GormUsageRecordRepository{db: db}
}

// Save persists a new usage record. The (class, provider_ref) unique
// index turns a webhook redelivery into shared.ErrAlreadyExists instead
// of a second row.
func (r *GormUsageRecordRepository) Save(ctx context.Context, record *telephony.UsageRecord) error {
	model := models.UsageRecordModelFromDomain(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID retrieves a usage record by its ID
func (r *GormUsageRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*telephony.UsageRecord, error) {
	var model models.UsageRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProviderRef retrieves a usage record by class and provider reference
func (r *GormUsageRecordRepository) FindByProviderRef(ctx context.Context, class telephony.UsageClass, providerRef string) (*telephony.UsageRecord, error) {
	var model models.UsageRecordModel
	if err := r.db.WithContext(ctx).
		Where("class = ? AND provider_ref = ?", class, providerRef).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPhoneNumber retrieves usage records for a phone number, newest first
func (r *GormUsageRecordRepository) FindByPhoneNumber(ctx context.Context, phoneNumberID uuid.UUID, filter telephony.UsageRecordFilter) ([]*telephony.UsageRecord, int64, error) {
	var total int64
	countQuery := r.applyRecordFilter(
		r.db.WithContext(ctx).Model(&models.UsageRecordModel{}).Where("phone_number_id = ?", phoneNumberID),
		filter,
	)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.applyRecordFilter(
		r.db.WithContext(ctx).Model(&models.UsageRecordModel{}).Where("phone_number_id = ?", phoneNumberID),
		filter,
	).Order("occurred_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var recordModels []models.UsageRecordModel
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]*telephony.UsageRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, total, nil
}

// typeStatsRow scans one GROUP BY type aggregation row
type typeStatsRow struct {
	Type            telephony.UsageType
	Count           int64
	Cost            decimal.Decimal
	DurationSeconds int64
}

// numberStatsRow scans one GROUP BY phone number aggregation row
type numberStatsRow struct {
	PhoneNumberID uuid.UUID
	Number        string
	Calls         int64
	Minutes       int64
	SMS           int64
	MMS           int64
	Cost          decimal.Decimal
}

// AggregateByTenant computes usage statistics for a tenant over the
// half-open window [start, end), grouped by type and by number. Both
// groupings are computed in SQL; records are never loaded into memory.
func (r *GormUsageRecordRepository) AggregateByTenant(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*telephony.UsageStats, error) {
	stats := telephony.NewUsageStats(tenantID, start, end)

	var typeRows []typeStatsRow
	if err := r.db.WithContext(ctx).
		Model(&models.UsageRecordModel{}).
		Select("type, COUNT(*) AS count, COALESCE(SUM(cost), 0) AS cost, COALESCE(SUM(duration_seconds), 0) AS duration_seconds").
		Where("tenant_id = ? AND occurred_at >= ? AND occurred_at < ?", tenantID, start, end).
		Group("type").
		Scan(&typeRows).Error; err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, row := range typeRows {
		stats.ByType[row.Type] = telephony.TypeStats{
			Count:           row.Count,
			Cost:            row.Cost,
			DurationSeconds: row.DurationSeconds,
		}
		total = total.Add(row.Cost)
	}
	stats.TotalCost = total

	// Rounding up per call before summing matches how calls are billed,
	// so reported minutes reconcile with reported cost.
	var numberRows []numberStatsRow
	if err := r.db.WithContext(ctx).
		Model(&models.UsageRecordModel{}).
		Select(`usage_records.phone_number_id,
			phone_numbers.number,
			COALESCE(SUM(CASE WHEN usage_records.class = 'call' THEN 1 ELSE 0 END), 0) AS calls,
			COALESCE(SUM((usage_records.duration_seconds + 59) / 60), 0) AS minutes,
			COALESCE(SUM(CASE WHEN usage_records.type IN ('sms_inbound', 'sms_outbound') THEN 1 ELSE 0 END), 0) AS sms,
			COALESCE(SUM(CASE WHEN usage_records.type IN ('mms_inbound', 'mms_outbound') THEN 1 ELSE 0 END), 0) AS mms,
			COALESCE(SUM(usage_records.cost), 0) AS cost`).
		Joins("JOIN phone_numbers ON phone_numbers.id = usage_records.phone_number_id").
		Where("usage_records.tenant_id = ? AND usage_records.occurred_at >= ? AND usage_records.occurred_at < ?", tenantID, start, end).
		Group("usage_records.phone_number_id, phone_numbers.number").
		Order("phone_numbers.number ASC").
		Scan(&numberRows).Error; err != nil {
		return nil, err
	}

	stats.ByNumber = make([]telephony.NumberStats, len(numberRows))
	for i, row := range numberRows {
		stats.ByNumber[i] = telephony.NumberStats{
			PhoneNumberID: row.PhoneNumberID,
			Number:        row.Number,
			Calls:         row.Calls,
			Minutes:       row.Minutes,
			SMS:           row.SMS,
			MMS:           row.MMS,
			Cost:          row.Cost,
		}
	}

	return stats, nil
}

// SumCostByTenant sums the usage cost for a tenant over [start, end)
func (r *GormUsageRecordRepository) SumCostByTenant(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.UsageRecordModel{}).
		Select("COALESCE(SUM(cost), 0) AS total").
		Where("tenant_id = ? AND occurred_at >= ? AND occurred_at < ?", tenantID, start, end).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// DeleteOlderThan removes usage records older than the given time
func (r *GormUsageRecordRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("occurred_at < ?", before).
		Delete(&models.UsageRecordModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// applyRecordFilter applies time range and type filters to the query
func (r *GormUsageRecordRepository) applyRecordFilter(query *gorm.DB, filter telephony.UsageRecordFilter) *gorm.DB {
	if filter.Start != nil {
		query = query.Where("occurred_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("occurred_at < ?", *filter.End)
	}
	if len(filter.Types) > 0 {
		query = query.Where("type IN ?", filter.Types)
	}
	return query
}
