package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sweepLockKey = "sweep:overdue"
	sweepLockTTL = 10 * time.Minute

	// suspendOverdueThreshold is how many overdue invoices a tenant can
	// carry before the sweep suspends the account
	suspendOverdueThreshold = 2
)

// SweepResult summarizes one overdue sweep run
type SweepResult struct {
	Ran              bool      `json:"ran"`
	StartedAt        time.Time `json:"started_at"`
	Duration         string    `json:"duration"`
	InvoicesOverdue  int       `json:"invoices_overdue"`
	TenantsSuspended int       `json:"tenants_suspended"`
	Errors           int       `json:"errors"`
}

// OverdueSweepService runs the daily overdue sweep: mark pending
// invoices past their due date as overdue, then suspend tenants
// carrying too many overdue invoices. The run is guarded by a
// distributed lock and every step is idempotent, so overlapping or
// repeated runs converge on the same state.
type OverdueSweepService struct {
	invoiceRepo  billing.InvoiceRepository
	tenantRepo   tenant.Repository
	numberRepo   telephony.PhoneNumberRepository
	activityRepo tenant.ActivityLogRepository
	lock         shared.DistributedLock
	logger       *zap.Logger
}

// NewOverdueSweepService creates a new overdue sweep service
func NewOverdueSweepService(
	invoiceRepo billing.InvoiceRepository,
	tenantRepo tenant.Repository,
	numberRepo telephony.PhoneNumberRepository,
	activityRepo tenant.ActivityLogRepository,
	lock shared.DistributedLock,
	logger *zap.Logger,
) *OverdueSweepService {
	return &OverdueSweepService{
		invoiceRepo:  invoiceRepo,
		tenantRepo:   tenantRepo,
		numberRepo:   numberRepo,
		activityRepo: activityRepo,
		lock:         lock,
		logger:       logger,
	}
}

// Run executes one sweep. If another instance holds the sweep lock the
// run is skipped and Ran is false.
func (s *OverdueSweepService) Run(ctx context.Context) (*SweepResult, error) {
	started := time.Now()
	result := &SweepResult{StartedAt: started}

	if s.lock != nil {
		acquired, err := s.lock.TryLock(ctx, sweepLockKey, sweepLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire sweep lock: %w", err)
		}
		if !acquired {
			s.logger.Info("overdue sweep skipped, another instance holds the lock")
			return result, nil
		}
		defer func() {
			if err := s.lock.Unlock(context.WithoutCancel(ctx), sweepLockKey); err != nil {
				s.logger.Warn("failed to release sweep lock", zap.Error(err))
			}
		}()
	}
	result.Ran = true

	s.markOverdueInvoices(ctx, started, result)
	s.suspendDelinquentTenants(ctx, result)

	result.Duration = time.Since(started).String()
	s.logger.Info("overdue sweep finished",
		zap.Int("invoices_overdue", result.InvoicesOverdue),
		zap.Int("tenants_suspended", result.TenantsSuspended),
		zap.Int("errors", result.Errors),
		zap.Duration("duration", time.Since(started)))

	return result, nil
}

// markOverdueInvoices is phase one: every pending invoice past its due
// date transitions to overdue. Failures on one invoice never stop the
// rest of the sweep.
func (s *OverdueSweepService) markOverdueInvoices(ctx context.Context, now time.Time, result *SweepResult) {
	invoices, err := s.invoiceRepo.FindPendingDueBefore(ctx, now)
	if err != nil {
		s.logger.Error("failed to list due invoices", zap.Error(err))
		result.Errors++
		return
	}

	for _, invoice := range invoices {
		if err := invoice.MarkOverdue(now); err != nil {
			// Already transitioned by a concurrent run
			continue
		}
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				continue
			}
			s.logger.Error("failed to save overdue invoice",
				zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
			result.Errors++
			continue
		}
		result.InvoicesOverdue++

		s.appendActivity(ctx, invoice.TenantID, tenant.ActivityInvoiceOverdue,
			fmt.Sprintf("Invoice %s is overdue", invoice.InvoiceNumber),
			map[string]any{
				"invoice_number": invoice.InvoiceNumber,
				"due_date":       invoice.DueDate.Format("2006-01-02"),
				"outstanding":    invoice.Outstanding().String(),
			})
	}
}

// suspendDelinquentTenants is phase two: recount overdue invoices per
// tenant from the database and suspend active tenants at or over the
// threshold. Fresh counts keep the phase idempotent regardless of what
// phase one did in this run.
func (s *OverdueSweepService) suspendDelinquentTenants(ctx context.Context, result *SweepResult) {
	delinquent, err := s.invoiceRepo.TenantsWithOverdueAtLeast(ctx, suspendOverdueThreshold)
	if err != nil {
		s.logger.Error("failed to list delinquent tenants", zap.Error(err))
		result.Errors++
		return
	}

	for _, d := range delinquent {
		suspended, err := s.suspendTenant(ctx, d.TenantID, d.Count)
		if err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == "INVALID_STATE" {
				// Already suspended by a concurrent run
				continue
			}
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				continue
			}
			s.logger.Error("failed to suspend tenant",
				zap.String("tenant_id", d.TenantID.String()), zap.Error(err))
			result.Errors++
			continue
		}
		if suspended {
			result.TenantsSuspended++
		}
	}
}

// suspendTenant reports whether this run actually suspended the
// tenant; a tenant already suspended by an earlier run is a no-op.
func (s *OverdueSweepService) suspendTenant(ctx context.Context, tenantID uuid.UUID, overdueCount int64) (bool, error) {
	account, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if !account.IsActive() {
		return false, nil
	}

	reason := fmt.Sprintf("%d overdue invoices", overdueCount)
	if err := account.Suspend(reason); err != nil {
		return false, err
	}
	if err := s.tenantRepo.SaveWithLock(ctx, account); err != nil {
		return false, err
	}

	s.suspendNumbers(ctx, tenantID)

	s.appendActivity(ctx, tenantID, tenant.ActivityClientSuspended,
		fmt.Sprintf("Account suspended: %s", reason),
		map[string]any{
			"overdue_count": overdueCount,
			"reason":        reason,
		})

	s.logger.Warn("tenant suspended for overdue invoices",
		zap.String("tenant_id", tenantID.String()),
		zap.String("tenant_code", account.Code),
		zap.Int64("overdue_count", overdueCount))

	return true, nil
}

func (s *OverdueSweepService) suspendNumbers(ctx context.Context, tenantID uuid.UUID) {
	numbers, err := s.numberRepo.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		s.logger.Error("failed to list numbers for suspension",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
		return
	}
	for i := range numbers {
		n := &numbers[i]
		if err := n.Suspend(); err != nil {
			continue
		}
		if err := s.numberRepo.SaveWithLock(ctx, n); err != nil {
			s.logger.Error("failed to suspend number",
				zap.String("number", n.Number), zap.Error(err))
		}
	}
}

func (s *OverdueSweepService) appendActivity(ctx context.Context, tenantID uuid.UUID, activityType tenant.ActivityType, description string, detail map[string]any) {
	entry, err := tenant.NewActivityLog(tenantID, activityType, description)
	if err != nil {
		s.logger.Error("failed to build activity entry", zap.Error(err))
		return
	}
	for k, v := range detail {
		entry.WithDetail(k, v)
	}
	if err := s.activityRepo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append activity", zap.Error(err))
	}
}
