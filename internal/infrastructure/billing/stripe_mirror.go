package billing

import (
	"context"
	"fmt"

	domainbilling "github.com/BoweryJG/osbackend-sub001/internal/domain/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/invoice"
	"github.com/stripe/stripe-go/v81/invoiceitem"
	"go.uber.org/zap"
)

// StripeMirror pushes finalized invoices to Stripe for card collection.
// The local invoice stays authoritative; a mirror failure is logged by
// the caller and never blocks invoice generation.
type StripeMirror struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeMirror creates a new Stripe invoice mirror
func NewStripeMirror(config *StripeConfig, logger *zap.Logger) (*StripeMirror, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	return &StripeMirror{
		config: config,
		logger: logger,
	}, nil
}

// MirrorInvoice creates pending invoice items for each line item plus
// tax, collects them into a send_invoice mode invoice and finalizes
// it so Stripe opens it for payment. Returns the Stripe invoice id.
func (m *StripeMirror) MirrorInvoice(ctx context.Context, inv *domainbilling.Invoice, account *tenant.Tenant) (string, error) {
	if account.StripeCustomerID == "" {
		return "", fmt.Errorf("stripe: tenant %s has no stripe customer", account.Code)
	}

	m.logger.Debug("Mirroring invoice to Stripe",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("customer_id", account.StripeCustomerID))

	for _, item := range inv.LineItems {
		params := &stripe.InvoiceItemParams{
			Customer:    stripe.String(account.StripeCustomerID),
			Currency:    stripe.String(string(stripe.CurrencyUSD)),
			Amount:      stripe.Int64(toCents(item.Amount)),
			Description: stripe.String(item.Description),
		}
		params.Context = ctx
		params.Metadata = map[string]string{
			"invoice_number": inv.InvoiceNumber,
			"category":       string(item.Category),
		}

		if _, err := invoiceitem.New(params); err != nil {
			return "", fmt.Errorf("stripe: failed to create invoice item: %w", err)
		}
	}

	if inv.TaxAmount.IsPositive() {
		params := &stripe.InvoiceItemParams{
			Customer:    stripe.String(account.StripeCustomerID),
			Currency:    stripe.String(string(stripe.CurrencyUSD)),
			Amount:      stripe.Int64(toCents(inv.TaxAmount)),
			Description: stripe.String(fmt.Sprintf("Sales tax (%s%%)", inv.TaxRate.String())),
		}
		params.Context = ctx
		params.Metadata = map[string]string{"invoice_number": inv.InvoiceNumber}

		if _, err := invoiceitem.New(params); err != nil {
			return "", fmt.Errorf("stripe: failed to create tax item: %w", err)
		}
	}

	invoiceParams := &stripe.InvoiceParams{
		Customer:                    stripe.String(account.StripeCustomerID),
		CollectionMethod:            stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		DaysUntilDue:                stripe.Int64(m.config.DaysUntilDue),
		PendingInvoiceItemsBehavior: stripe.String("include"),
		Description:                 stripe.String(fmt.Sprintf("Telephony usage %s", inv.PeriodStart.Format("January 2006"))),
	}
	invoiceParams.Context = ctx
	invoiceParams.Metadata = map[string]string{
		"invoice_number": inv.InvoiceNumber,
		"tenant_id":      inv.TenantID.String(),
	}

	stripeInvoice, err := invoice.New(invoiceParams)
	if err != nil {
		return "", fmt.Errorf("stripe: failed to create invoice: %w", err)
	}

	// A draft never emits payment events; finalizing opens the invoice
	// and, in send_invoice mode, emails it to the customer.
	finalizeParams := &stripe.InvoiceFinalizeInvoiceParams{
		AutoAdvance: stripe.Bool(true),
	}
	finalizeParams.Context = ctx
	if _, err := invoice.FinalizeInvoice(stripeInvoice.ID, finalizeParams); err != nil {
		return "", fmt.Errorf("stripe: failed to finalize invoice %s: %w", stripeInvoice.ID, err)
	}

	m.logger.Info("Mirrored invoice to Stripe",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("stripe_invoice_id", stripeInvoice.ID))

	return stripeInvoice.ID, nil
}

// toCents converts a dollar amount to integer cents, rounding half up
func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
