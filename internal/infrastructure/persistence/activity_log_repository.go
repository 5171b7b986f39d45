package persistence

import (
	"context"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormActivityLogRepository implements tenant.ActivityLogRepository using GORM
type GormActivityLogRepository struct {
	db *gorm.DB
}

// NewGormActivityLogRepository creates a new GormActivityLogRepository
func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

// Append persists a new activity entry. Entries are append-only.
func (r *GormActivityLogRepository) Append(ctx context.Context, entry *tenant.ActivityLog) error {
	model := models.ActivityLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByTenant finds activity entries for a tenant, newest first
func (r *GormActivityLogRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter tenant.ActivityLogFilter) ([]*tenant.ActivityLog, int64, error) {
	var total int64
	countQuery := r.applyActivityFilter(
		r.db.WithContext(ctx).Model(&models.ActivityLogModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.applyActivityFilter(
		r.db.WithContext(ctx).Model(&models.ActivityLogModel{}).Where("tenant_id = ?", tenantID),
		filter,
	).Order("occurred_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var entryModels []models.ActivityLogModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*tenant.ActivityLog, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, total, nil
}

// CountByTenantAndType counts entries of a type for a tenant in a time range
func (r *GormActivityLogRepository) CountByTenantAndType(ctx context.Context, tenantID uuid.UUID, activityType tenant.ActivityType, start, end time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ActivityLogModel{}).
		Where("tenant_id = ? AND type = ? AND occurred_at >= ? AND occurred_at < ?", tenantID, activityType, start, end).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyActivityFilter applies type and time range filters to the query
func (r *GormActivityLogRepository) applyActivityFilter(query *gorm.DB, filter tenant.ActivityLogFilter) *gorm.DB {
	if len(filter.Types) > 0 {
		query = query.Where("type IN ?", filter.Types)
	}
	if filter.Start != nil {
		query = query.Where("occurred_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("occurred_at < ?", *filter.End)
	}
	return query
}
