package usage

import (
	"context"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock repositories
// =============================================================================

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]tenant.Tenant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByStatus(ctx context.Context, status tenant.Status, filter shared.Filter) ([]tenant.Tenant, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindActive(ctx context.Context, filter shared.Filter) ([]tenant.Tenant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]tenant.Tenant, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTenantRepository) SaveWithLock(ctx context.Context, t *tenant.Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTenantRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockTenantRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPhoneNumberRepository struct {
	mock.Mock
}

func (m *MockPhoneNumberRepository) FindByID(ctx context.Context, id uuid.UUID) (*telephony.PhoneNumber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telephony.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) FindByNumber(ctx context.Context, number string) (*telephony.PhoneNumber, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telephony.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]telephony.PhoneNumber, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]telephony.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]telephony.PhoneNumber, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]telephony.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) Save(ctx context.Context, number *telephony.PhoneNumber) error {
	args := m.Called(ctx, number)
	return args.Error(0)
}

func (m *MockPhoneNumberRepository) SaveWithLock(ctx context.Context, number *telephony.PhoneNumber) error {
	args := m.Called(ctx, number)
	return args.Error(0)
}

func (m *MockPhoneNumberRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUsageRecordRepository struct {
	mock.Mock
}

func (m *MockUsageRecordRepository) Save(ctx context.Context, record *telephony.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUsageRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*telephony.UsageRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telephony.UsageRecord), args.Error(1)
}

func (m *MockUsageRecordRepository) FindByProviderRef(ctx context.Context, class telephony.UsageClass, providerRef string) (*telephony.UsageRecord, error) {
	args := m.Called(ctx, class, providerRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telephony.UsageRecord), args.Error(1)
}

func (m *MockUsageRecordRepository) FindByPhoneNumber(ctx context.Context, phoneNumberID uuid.UUID, filter telephony.UsageRecordFilter) ([]*telephony.UsageRecord, int64, error) {
	args := m.Called(ctx, phoneNumberID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*telephony.UsageRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockUsageRecordRepository) AggregateByTenant(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*telephony.UsageStats, error) {
	args := m.Called(ctx, tenantID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telephony.UsageStats), args.Error(1)
}

func (m *MockUsageRecordRepository) SumCostByTenant(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockUsageRecordRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type MockActivityLogRepository struct {
	mock.Mock
}

func (m *MockActivityLogRepository) Append(ctx context.Context, entry *tenant.ActivityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockActivityLogRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter tenant.ActivityLogFilter) ([]*tenant.ActivityLog, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*tenant.ActivityLog), args.Get(1).(int64), args.Error(2)
}

func (m *MockActivityLogRepository) CountByTenantAndType(ctx context.Context, tenantID uuid.UUID, activityType tenant.ActivityType, start, end time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, activityType, start, end)
	return args.Get(0).(int64), args.Error(1)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
