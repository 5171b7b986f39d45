package tenant

import (
	"context"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for tenant persistence
type Repository interface {
	// FindByID finds a tenant by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindByCode finds a tenant by its unique code
	FindByCode(ctx context.Context, code string) (*Tenant, error)

	// FindAll finds all tenants matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Tenant, error)

	// FindByStatus finds tenants by status
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) ([]Tenant, error)

	// FindActive finds all active tenants
	FindActive(ctx context.Context, filter shared.Filter) ([]Tenant, error)

	// FindByIDs finds multiple tenants by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Tenant, error)

	// Save creates or updates a tenant
	Save(ctx context.Context, tenant *Tenant) error

	// SaveWithLock saves with optimistic locking on the version column
	SaveWithLock(ctx context.Context, tenant *Tenant) error

	// AdjustBalance applies the given delta to the tenant balance as a
	// single atomic SQL increment. Usage charges pass a negative delta,
	// payments a positive one. This is the only legal way to mutate a
	// tenant balance; loading the aggregate and writing a computed value
	// back loses updates under concurrent webhook delivery.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error

	// Count counts tenants matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByCode checks if a tenant with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Delete deletes a tenant
	Delete(ctx context.Context, id uuid.UUID) error
}
