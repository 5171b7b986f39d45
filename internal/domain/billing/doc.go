// Package billing provides domain models for invoicing and payment settlement
// in a multi-tenant telephony platform.
//
// This package implements the billing bounded context, which is responsible for:
//   - Generating monthly invoices from aggregated telephony usage
//   - Tracking invoice settlement through partial and full payments
//   - Recording payments and their application to invoices
//   - Allocating invoice and payment numbers from per-year sequences
//
// Key Aggregates:
//   - Invoice: A billing period's charges with line items, tax and a
//     draft/pending/paid/overdue/cancelled state machine
//   - Payment: A received payment, optionally applied to an invoice
//
// The billing domain integrates with:
//   - Tenant domain: For account balances and suspension state
//   - Telephony domain: As the source of billable usage
package billing
