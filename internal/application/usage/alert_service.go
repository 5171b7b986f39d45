package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AlertThresholds configures when tenant alerts fire
type AlertThresholds struct {
	// LowBalance fires when the tenant balance drops below this amount
	LowBalance decimal.Decimal
	// HighUsage fires when trailing 24h usage cost exceeds this amount
	HighUsage decimal.Decimal
}

// DefaultAlertThresholds returns the standard alert thresholds
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		LowBalance: decimal.NewFromInt(50),
		HighUsage:  decimal.NewFromInt(100),
	}
}

// AlertService raises low-balance and high-usage alerts for tenants.
// Alerts are recorded in the tenant activity log; a repeated condition
// raises at most one alert per tenant per 24 hours, deduplicated
// through the idempotency store.
type AlertService struct {
	tenantRepo   tenant.Repository
	recordRepo   telephony.UsageRecordRepository
	activityRepo tenant.ActivityLogRepository
	dedup        shared.IdempotencyStore
	thresholds   AlertThresholds
	logger       *zap.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(
	tenantRepo tenant.Repository,
	recordRepo telephony.UsageRecordRepository,
	activityRepo tenant.ActivityLogRepository,
	dedup shared.IdempotencyStore,
	thresholds AlertThresholds,
	logger *zap.Logger,
) *AlertService {
	return &AlertService{
		tenantRepo:   tenantRepo,
		recordRepo:   recordRepo,
		activityRepo: activityRepo,
		dedup:        dedup,
		thresholds:   thresholds,
		logger:       logger,
	}
}

const alertDedupTTL = 24 * time.Hour

// CheckAfterUsage runs both alert checks for a tenant after a usage
// event was charged. Alert failures are logged, never propagated: a
// failed alert must not fail the usage webhook.
func (s *AlertService) CheckAfterUsage(ctx context.Context, tenantID uuid.UUID) {
	if err := s.CheckLowBalance(ctx, tenantID); err != nil {
		s.logger.Error("low balance check failed",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	if err := s.CheckHighUsage(ctx, tenantID); err != nil {
		s.logger.Error("high usage check failed",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
}

// CheckLowBalance raises a low balance alert if the tenant balance is
// below the threshold
func (s *AlertService) CheckLowBalance(ctx context.Context, tenantID uuid.UUID) error {
	tn, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant: %w", err)
	}
	if !tn.NotificationPrefs.LowBalanceAlerts {
		return nil
	}
	if tn.Balance.GreaterThanOrEqual(s.thresholds.LowBalance) {
		return nil
	}

	key := fmt.Sprintf("alert:low_balance:%s", tenantID)
	fresh, err := s.dedup.MarkProcessed(ctx, key, alertDedupTTL)
	if err != nil {
		return fmt.Errorf("alert dedup failed: %w", err)
	}
	if !fresh {
		return nil
	}

	entry, err := tenant.NewActivityLog(tenantID, tenant.ActivityLowBalanceAlert,
		fmt.Sprintf("Balance dropped below %s", s.thresholds.LowBalance.StringFixed(2)))
	if err != nil {
		return err
	}
	entry.WithDetail("balance", tn.Balance.String()).
		WithDetail("threshold", s.thresholds.LowBalance.String())

	if err := s.activityRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	s.logger.Warn("low balance alert",
		zap.String("tenant_id", tenantID.String()),
		zap.String("tenant_code", tn.Code),
		zap.String("balance", tn.Balance.String()))

	return nil
}

// CheckHighUsage raises a high usage alert if the tenant's trailing
// 24 hour usage cost exceeds the threshold
func (s *AlertService) CheckHighUsage(ctx context.Context, tenantID uuid.UUID) error {
	tn, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant: %w", err)
	}
	if !tn.NotificationPrefs.HighUsageAlerts {
		return nil
	}

	now := time.Now()
	cost, err := s.recordRepo.SumCostByTenant(ctx, tenantID, now.Add(-24*time.Hour), now)
	if err != nil {
		return fmt.Errorf("failed to sum usage cost: %w", err)
	}
	if cost.LessThanOrEqual(s.thresholds.HighUsage) {
		return nil
	}

	key := fmt.Sprintf("alert:high_usage:%s", tenantID)
	fresh, err := s.dedup.MarkProcessed(ctx, key, alertDedupTTL)
	if err != nil {
		return fmt.Errorf("alert dedup failed: %w", err)
	}
	if !fresh {
		return nil
	}

	entry, err := tenant.NewActivityLog(tenantID, tenant.ActivityHighUsageAlert,
		fmt.Sprintf("Usage exceeded %s in the last 24 hours", s.thresholds.HighUsage.StringFixed(2)))
	if err != nil {
		return err
	}
	entry.WithDetail("usage_cost_24h", cost.String()).
		WithDetail("threshold", s.thresholds.HighUsage.String())

	if err := s.activityRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	s.logger.Warn("high usage alert",
		zap.String("tenant_id", tenantID.String()),
		zap.String("tenant_code", tn.Code),
		zap.String("usage_cost_24h", cost.String()))

	return nil
}
