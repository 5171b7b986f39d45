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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceMirror pushes a finalized invoice to the external billing
// provider. Mirroring is best effort: local state is authoritative.
type InvoiceMirror interface {
	// MirrorInvoice creates the invoice at the provider and returns its id
	MirrorInvoice(ctx context.Context, invoice *billing.Invoice, account *tenant.Tenant) (string, error)
}

// BillingPolicy holds invoice generation policy
type BillingPolicy struct {
	// TaxRate is a percentage, e.g. 8.875 for NYC
	TaxRate decimal.Decimal
	// DueDays is how many days after the period end an invoice is due
	DueDays int
	// MirrorTimeout bounds the best-effort provider mirroring call
	MirrorTimeout time.Duration
}

// DefaultBillingPolicy returns the standard billing policy
func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		TaxRate:       decimal.RequireFromString("8.875"),
		DueDays:       30,
		MirrorTimeout: 5 * time.Second,
	}
}

// InvoiceService generates and queries tenant invoices
type InvoiceService struct {
	invoiceRepo  billing.InvoiceRepository
	sequenceRepo billing.SequenceRepository
	tenantRepo   tenant.Repository
	numberRepo   telephony.PhoneNumberRepository
	recordRepo   telephony.UsageRecordRepository
	activityRepo tenant.ActivityLogRepository
	mirror       InvoiceMirror
	policy       BillingPolicy
	logger       *zap.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	sequenceRepo billing.SequenceRepository,
	tenantRepo tenant.Repository,
	numberRepo telephony.PhoneNumberRepository,
	recordRepo telephony.UsageRecordRepository,
	activityRepo tenant.ActivityLogRepository,
	mirror InvoiceMirror,
	policy BillingPolicy,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		sequenceRepo: sequenceRepo,
		tenantRepo:   tenantRepo,
		numberRepo:   numberRepo,
		recordRepo:   recordRepo,
		activityRepo: activityRepo,
		mirror:       mirror,
		policy:       policy,
		logger:       logger,
	}
}

// GenerateInvoiceInput selects the tenant and billing period
type GenerateInvoiceInput struct {
	TenantID    uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// GenerateInvoiceResult carries the invoice and whether this call
// created it
type GenerateInvoiceResult struct {
	Invoice *billing.Invoice
	Created bool
}

// FormatInvoiceNumber renders an invoice number from its parts
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%06d", year, seq)
}

// FormatPaymentNumber renders a payment number from its parts
func FormatPaymentNumber(year int, seq int64) string {
	return fmt.Sprintf("PAY-%d-%06d", year, seq)
}

// GenerateInvoice builds the invoice for a tenant's billing period:
// one rental line per active number, one usage line per usage type
// with activity in the period, tax on top. Generation is idempotent
// per tenant and period; a second call returns the existing invoice.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, input GenerateInvoiceInput) (*GenerateInvoiceResult, error) {
	if input.TenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !input.PeriodEnd.After(input.PeriodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end must be after period start")
	}

	account, err := s.tenantRepo.FindByID(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.invoiceRepo.FindByTenantAndPeriod(ctx, input.TenantID, input.PeriodStart, input.PeriodEnd)
	if err == nil {
		return &GenerateInvoiceResult{Invoice: existing}, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing invoice: %w", err)
	}

	year := input.PeriodEnd.Year()
	seq, err := s.sequenceRepo.NextNumber(ctx, billing.SequenceScopeInvoice, year)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	dueDate := input.PeriodEnd.AddDate(0, 0, s.policy.DueDays)
	invoice, err := billing.NewInvoice(input.TenantID, FormatInvoiceNumber(year, seq),
		input.PeriodStart, input.PeriodEnd, s.policy.TaxRate, dueDate)
	if err != nil {
		return nil, err
	}

	if err := s.addRentalItems(ctx, invoice, input.TenantID); err != nil {
		return nil, err
	}
	stats, err := s.addUsageItems(ctx, invoice, input.TenantID, input.PeriodStart, input.PeriodEnd)
	if err != nil {
		return nil, err
	}

	usageCost := decimal.Zero
	if stats != nil {
		usageCost = stats.TotalCost
		if err := invoice.SetUsageSummary(billing.UsageSummary{
			Calls:     stats.TotalCalls(),
			Minutes:   stats.TotalMinutes(),
			SMS:       stats.ByType[telephony.UsageTypeSMSInbound].Count + stats.ByType[telephony.UsageTypeSMSOutbound].Count,
			MMS:       stats.ByType[telephony.UsageTypeMMSInbound].Count + stats.ByType[telephony.UsageTypeMMSOutbound].Count,
			UsageCost: usageCost,
		}); err != nil {
			return nil, err
		}
	}

	if err := invoice.Finalize(); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost the race to a concurrent generation for the same period
			winner, ferr := s.invoiceRepo.FindByTenantAndPeriod(ctx, input.TenantID, input.PeriodStart, input.PeriodEnd)
			if ferr != nil {
				return nil, ferr
			}
			return &GenerateInvoiceResult{Invoice: winner}, nil
		}
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	s.appendActivity(ctx, input.TenantID, tenant.ActivityInvoiceGenerated,
		fmt.Sprintf("Invoice %s generated for %s", invoice.InvoiceNumber, formatPeriod(input.PeriodStart, input.PeriodEnd)),
		map[string]any{
			"invoice_id":     invoice.ID.String(),
			"invoice_number": invoice.InvoiceNumber,
			"total":          invoice.Total.String(),
		})

	s.mirrorInvoice(ctx, invoice, account)

	s.logger.Info("invoice generated",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total", invoice.Total.String()))

	return &GenerateInvoiceResult{Invoice: invoice, Created: true}, nil
}

func (s *InvoiceService) addRentalItems(ctx context.Context, invoice *billing.Invoice, tenantID uuid.UUID) error {
	numbers, err := s.numberRepo.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to list numbers: %w", err)
	}

	for _, n := range numbers {
		if !n.MonthlyFee.IsPositive() {
			continue
		}
		item, err := billing.NewLineItem(
			fmt.Sprintf("Phone number %s", n.Number),
			1, n.MonthlyFee, billing.LineItemCategoryPhoneRental)
		if err != nil {
			return err
		}
		if err := invoice.AddLineItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (s *InvoiceService) addUsageItems(ctx context.Context, invoice *billing.Invoice, tenantID uuid.UUID, start, end time.Time) (*telephony.UsageStats, error) {
	stats, err := s.recordRepo.AggregateByTenant(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}

	for _, usageType := range telephony.AllUsageTypes() {
		ts, ok := stats.ByType[usageType]
		if !ok || ts.Count == 0 || !ts.Cost.IsPositive() {
			continue
		}
		item, err := billing.NewLineItem(usageLineDescription(usageType, ts), 1, ts.Cost, billing.LineItemCategoryUsage)
		if err != nil {
			return nil, err
		}
		if err := invoice.AddLineItem(item); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func usageLineDescription(usageType telephony.UsageType, ts telephony.TypeStats) string {
	switch usageType {
	case telephony.UsageTypeCallInbound:
		return fmt.Sprintf("Inbound calls (%d)", ts.Count)
	case telephony.UsageTypeCallOutbound:
		return fmt.Sprintf("Outbound calls (%d)", ts.Count)
	case telephony.UsageTypeSMSInbound:
		return fmt.Sprintf("Inbound SMS (%d)", ts.Count)
	case telephony.UsageTypeSMSOutbound:
		return fmt.Sprintf("Outbound SMS (%d)", ts.Count)
	case telephony.UsageTypeMMSInbound:
		return fmt.Sprintf("Inbound MMS (%d)", ts.Count)
	case telephony.UsageTypeMMSOutbound:
		return fmt.Sprintf("Outbound MMS (%d)", ts.Count)
	}
	return string(usageType)
}

// mirrorInvoice pushes the invoice to the provider on a best-effort
// basis. The mirror call gets its own timeout so a slow provider never
// delays invoice generation, and failures only log.
func (s *InvoiceService) mirrorInvoice(ctx context.Context, invoice *billing.Invoice, account *tenant.Tenant) {
	if s.mirror == nil || account.StripeCustomerID == "" {
		return
	}

	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.policy.MirrorTimeout)
	defer cancel()

	stripeID, err := s.mirror.MirrorInvoice(mctx, invoice, account)
	if err != nil {
		s.logger.Warn("invoice mirroring failed",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(err))
		return
	}

	invoice.SetStripeInvoiceID(stripeID)
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		s.logger.Warn("failed to store mirrored invoice id",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(err))
	}
}

// GetInvoice retrieves one invoice by id
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	return s.invoiceRepo.FindByID(ctx, id)
}

// ListInvoices retrieves invoices matching the filter
func (s *InvoiceService) ListInvoices(ctx context.Context, filter billing.InvoiceFilter) ([]*billing.Invoice, int64, error) {
	return s.invoiceRepo.FindAll(ctx, filter)
}

func (s *InvoiceService) appendActivity(ctx context.Context, tenantID uuid.UUID, activityType tenant.ActivityType, description string, detail map[string]any) {
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

func formatPeriod(start, end time.Time) string {
	return fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
}
