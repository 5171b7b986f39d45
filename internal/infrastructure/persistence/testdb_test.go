package persistence

import (
	"testing"

	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with the full schema.
// TranslateError maps unique violations to gorm.ErrDuplicatedKey the
// same way the postgres driver does in production.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.TenantModel{},
		&models.PhoneNumberModel{},
		&models.UsageRecordModel{},
		&models.InvoiceModel{},
		&models.PaymentModel{},
		&models.SequenceModel{},
		&models.ActivityLogModel{},
	)
	require.NoError(t, err)

	return db
}
