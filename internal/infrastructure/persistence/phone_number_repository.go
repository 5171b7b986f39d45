package persistence

import (
	"context"
	"errors"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPhoneNumberRepository implements telephony.PhoneNumberRepository using GORM
type GormPhoneNumberRepository struct {
	db *gorm.DB
}

// NewGormPhoneNumberRepository creates a new GormPhoneNumberRepository
func NewGormPhoneNumberRepository(db *gorm.DB) *GormPhoneNumberRepository {
	return &GormPhoneNumberRepository{db: db}
}

// FindByID finds a phone number by its ID
func (r *GormPhoneNumberRepository) FindByID(ctx context.Context, id uuid.UUID) (*telephony.PhoneNumber, error) {
	var model models.PhoneNumberModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a phone number by its E.164 string
func (r *GormPhoneNumberRepository) FindByNumber(ctx context.Context, number string) (*telephony.PhoneNumber, error) {
	var model models.PhoneNumberModel
	if err := r.db.WithContext(ctx).
		Where("number = ?", number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenant finds all phone numbers owned by a tenant
func (r *GormPhoneNumberRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]telephony.PhoneNumber, error) {
	var numberModels []models.PhoneNumberModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.PhoneNumberModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&numberModels).Error; err != nil {
		return nil, err
	}

	numbers := make([]telephony.PhoneNumber, len(numberModels))
	for i, model := range numberModels {
		numbers[i] = *model.ToDomain()
	}
	return numbers, nil
}

// FindActiveByTenant finds the active numbers owned by a tenant
func (r *GormPhoneNumberRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]telephony.PhoneNumber, error) {
	var numberModels []models.PhoneNumberModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, telephony.NumberStatusActive).
		Order("number ASC").
		Find(&numberModels).Error; err != nil {
		return nil, err
	}

	numbers := make([]telephony.PhoneNumber, len(numberModels))
	for i, model := range numberModels {
		numbers[i] = *model.ToDomain()
	}
	return numbers, nil
}

// Save creates or updates a phone number
func (r *GormPhoneNumberRepository) Save(ctx context.Context, number *telephony.PhoneNumber) error {
	model := models.PhoneNumberModelFromDomain(number)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock saves a phone number with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the version has changed.
func (r *GormPhoneNumberRepository) SaveWithLock(ctx context.Context, number *telephony.PhoneNumber) error {
	model := models.PhoneNumberModelFromDomain(number)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", number.ID, number.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountByTenant counts phone numbers owned by a tenant
func (r *GormPhoneNumberRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PhoneNumberModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormPhoneNumberRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("number LIKE ? OR friendly_name ILIKE ?", searchPattern, searchPattern)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, PhoneNumberSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}
