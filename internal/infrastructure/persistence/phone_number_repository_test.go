package persistence

import (
	"context"
	"testing"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNumber(t *testing.T, tenantID uuid.UUID, number string) *telephony.PhoneNumber {
	t.Helper()
	n, err := telephony.NewPhoneNumber(tenantID, number, decimal.RequireFromString("1.15"))
	require.NoError(t, err)
	return n
}

func TestPhoneNumberRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPhoneNumberRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()

	t.Run("saves and finds by number string", func(t *testing.T) {
		n := newTestNumber(t, tenantID, "+12125551001")
		n.FriendlyName = "Front desk"
		n.ProviderSID = "PN123abc"
		require.NoError(t, repo.Save(ctx, n))

		found, err := repo.FindByNumber(ctx, "+12125551001")
		require.NoError(t, err)
		assert.Equal(t, n.ID, found.ID)
		assert.Equal(t, tenantID, found.TenantID)
		assert.Equal(t, "Front desk", found.FriendlyName)
		assert.True(t, found.MonthlyFee.Equal(decimal.RequireFromString("1.15")))
		assert.True(t, found.Capabilities.Voice)
		assert.True(t, found.Capabilities.SMS)
		assert.False(t, found.Capabilities.MMS)
	})

	t.Run("returns not found for unknown number", func(t *testing.T) {
		_, err := repo.FindByNumber(ctx, "+19995550000")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects duplicate number", func(t *testing.T) {
		dup := newTestNumber(t, uuid.New(), "+12125551001")
		err := repo.Save(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestPhoneNumberRepository_FindActiveByTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPhoneNumberRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()

	active := newTestNumber(t, tenantID, "+12125552001")
	require.NoError(t, repo.Save(ctx, active))

	suspended := newTestNumber(t, tenantID, "+12125552002")
	require.NoError(t, suspended.Suspend())
	require.NoError(t, repo.Save(ctx, suspended))

	released := newTestNumber(t, tenantID, "+12125552003")
	require.NoError(t, released.Release())
	require.NoError(t, repo.Save(ctx, released))

	otherTenant := newTestNumber(t, uuid.New(), "+12125552004")
	require.NoError(t, repo.Save(ctx, otherTenant))

	found, err := repo.FindActiveByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "+12125552001", found[0].Number)

	count, err := repo.CountByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestPhoneNumberRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPhoneNumberRepository(db)
	ctx := context.Background()

	n := newTestNumber(t, uuid.New(), "+12125553001")
	require.NoError(t, repo.Save(ctx, n))

	first, err := repo.FindByNumber(ctx, "+12125553001")
	require.NoError(t, err)
	second, err := repo.FindByNumber(ctx, "+12125553001")
	require.NoError(t, err)

	require.NoError(t, first.Suspend())
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, second.Suspend())
	err = repo.SaveWithLock(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}
