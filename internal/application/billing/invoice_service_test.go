package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type invoiceServiceFixture struct {
	invoiceRepo  *MockInvoiceRepository
	sequenceRepo *MockSequenceRepository
	tenantRepo   *MockTenantRepository
	numberRepo   *MockPhoneNumberRepository
	recordRepo   *MockUsageRecordRepository
	activityRepo *MockActivityLogRepository
	mirror       *MockInvoiceMirror
	service      *InvoiceService
}

func newInvoiceServiceFixture(t *testing.T) *invoiceServiceFixture {
	t.Helper()

	f := &invoiceServiceFixture{
		invoiceRepo:  new(MockInvoiceRepository),
		sequenceRepo: new(MockSequenceRepository),
		tenantRepo:   new(MockTenantRepository),
		numberRepo:   new(MockPhoneNumberRepository),
		recordRepo:   new(MockUsageRecordRepository),
		activityRepo: new(MockActivityLogRepository),
		mirror:       new(MockInvoiceMirror),
	}
	f.service = NewInvoiceService(
		f.invoiceRepo, f.sequenceRepo, f.tenantRepo, f.numberRepo,
		f.recordRepo, f.activityRepo, f.mirror, DefaultBillingPolicy(),
		zap.NewNop())
	return f
}

func testAccount(t *testing.T) *tenant.Tenant {
	t.Helper()
	account, err := tenant.NewTenant("ACME-01", "Acme Dental")
	require.NoError(t, err)
	return account
}

func monthPeriod() (time.Time, time.Time) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func TestInvoiceService_GenerateInvoice(t *testing.T) {
	ctx := context.Background()
	periodStart, periodEnd := monthPeriod()

	t.Run("builds rental and usage lines with tax", func(t *testing.T) {
		f := newInvoiceServiceFixture(t)
		account := testAccount(t)

		number, err := telephony.NewPhoneNumber(account.ID, "+15551234567", decimal.RequireFromString("1.00"))
		require.NoError(t, err)

		stats := telephony.NewUsageStats(account.ID, periodStart, periodEnd)
		stats.ByType[telephony.UsageTypeCallOutbound] = telephony.TypeStats{
			Count: 11, DurationSeconds: 3300, Cost: decimal.RequireFromString("1.10"),
		}
		stats.TotalCost = decimal.RequireFromString("1.10")

		f.tenantRepo.On("FindByID", ctx, account.ID).Return(account, nil)
		f.invoiceRepo.On("FindByTenantAndPeriod", ctx, account.ID, periodStart, periodEnd).Return(nil, shared.ErrNotFound)
		f.sequenceRepo.On("NextNumber", ctx, billing.SequenceScopeInvoice, 2026).Return(int64(42), nil)
		f.numberRepo.On("FindActiveByTenant", ctx, account.ID).Return([]telephony.PhoneNumber{*number}, nil)
		f.recordRepo.On("AggregateByTenant", ctx, account.ID, periodStart, periodEnd).Return(stats, nil)
		f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)
		f.activityRepo.On("Append", ctx, mock.AnythingOfType("*tenant.ActivityLog")).Return(nil)

		result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			TenantID:    account.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		})
		require.NoError(t, err)
		require.True(t, result.Created)

		inv := result.Invoice
		assert.Equal(t, "INV-2026-000042", inv.InvoiceNumber)
		assert.Equal(t, billing.InvoiceStatusPending, inv.Status)
		require.Len(t, inv.LineItems, 2)

		// 1.00 rental + 1.10 usage = 2.10; 8.875% tax rounds to 0.19
		assert.True(t, inv.Subtotal.Equal(decimal.RequireFromString("2.10")), "subtotal %s", inv.Subtotal)
		assert.True(t, inv.TaxAmount.Equal(decimal.RequireFromString("0.19")), "tax %s", inv.TaxAmount)
		assert.True(t, inv.Total.Equal(decimal.RequireFromString("2.29")), "total %s", inv.Total)

		assert.Equal(t, int64(11), inv.UsageSummary.Calls)
		assert.Equal(t, int64(55), inv.UsageSummary.Minutes)

		// No Stripe customer on the account, so no mirroring
		f.mirror.AssertNotCalled(t, "MirrorInvoice", mock.Anything, mock.Anything, mock.Anything)
		f.invoiceRepo.AssertExpectations(t)
	})

	t.Run("idempotent per tenant and period", func(t *testing.T) {
		f := newInvoiceServiceFixture(t)
		account := testAccount(t)

		existing, err := billing.NewInvoice(account.ID, "INV-2026-000001", periodStart, periodEnd,
			decimal.Zero, periodEnd.AddDate(0, 0, 30))
		require.NoError(t, err)

		f.tenantRepo.On("FindByID", ctx, account.ID).Return(account, nil)
		f.invoiceRepo.On("FindByTenantAndPeriod", ctx, account.ID, periodStart, periodEnd).Return(existing, nil)

		result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			TenantID:    account.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		})
		require.NoError(t, err)
		assert.False(t, result.Created)
		assert.Same(t, existing, result.Invoice)
		f.sequenceRepo.AssertNotCalled(t, "NextNumber", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mirror failure does not fail generation", func(t *testing.T) {
		f := newInvoiceServiceFixture(t)
		account := testAccount(t)
		account.StripeCustomerID = "cus_123"

		stats := telephony.NewUsageStats(account.ID, periodStart, periodEnd)

		f.tenantRepo.On("FindByID", ctx, account.ID).Return(account, nil)
		f.invoiceRepo.On("FindByTenantAndPeriod", ctx, account.ID, periodStart, periodEnd).Return(nil, shared.ErrNotFound)
		f.sequenceRepo.On("NextNumber", ctx, billing.SequenceScopeInvoice, 2026).Return(int64(1), nil)
		f.numberRepo.On("FindActiveByTenant", ctx, account.ID).Return([]telephony.PhoneNumber{}, nil)
		f.recordRepo.On("AggregateByTenant", ctx, account.ID, periodStart, periodEnd).Return(stats, nil)
		f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)
		f.activityRepo.On("Append", ctx, mock.AnythingOfType("*tenant.ActivityLog")).Return(nil)
		f.mirror.On("MirrorInvoice", mock.Anything, mock.AnythingOfType("*billing.Invoice"), account).
			Return("", errors.New("stripe unavailable"))

		result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			TenantID:    account.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		})
		require.NoError(t, err)
		assert.True(t, result.Created)
		assert.Empty(t, result.Invoice.StripeInvoiceID)
	})

	t.Run("mirror success stores provider id", func(t *testing.T) {
		f := newInvoiceServiceFixture(t)
		account := testAccount(t)
		account.StripeCustomerID = "cus_123"

		stats := telephony.NewUsageStats(account.ID, periodStart, periodEnd)

		f.tenantRepo.On("FindByID", ctx, account.ID).Return(account, nil)
		f.invoiceRepo.On("FindByTenantAndPeriod", ctx, account.ID, periodStart, periodEnd).Return(nil, shared.ErrNotFound)
		f.sequenceRepo.On("NextNumber", ctx, billing.SequenceScopeInvoice, 2026).Return(int64(2), nil)
		f.numberRepo.On("FindActiveByTenant", ctx, account.ID).Return([]telephony.PhoneNumber{}, nil)
		f.recordRepo.On("AggregateByTenant", ctx, account.ID, periodStart, periodEnd).Return(stats, nil)
		f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)
		f.invoiceRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)
		f.activityRepo.On("Append", ctx, mock.AnythingOfType("*tenant.ActivityLog")).Return(nil)
		f.mirror.On("MirrorInvoice", mock.Anything, mock.AnythingOfType("*billing.Invoice"), account).
			Return("in_stripe_99", nil)

		result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			TenantID:    account.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		})
		require.NoError(t, err)
		assert.Equal(t, "in_stripe_99", result.Invoice.StripeInvoiceID)
	})

	t.Run("rejects inverted period", func(t *testing.T) {
		f := newInvoiceServiceFixture(t)
		_, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			TenantID:    uuid.New(),
			PeriodStart: periodEnd,
			PeriodEnd:   periodStart,
		})
		assert.Error(t, err)
	})
}
