package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	domainbilling "github.com/BoweryJG/osbackend-sub001/internal/domain/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

// setupMockBackend sets up a mock Stripe backend for testing
func setupMockBackend(handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) func() {
	mock := &mockBackend{handler: handler}
	stripe.SetBackend(stripe.APIBackend, mock)
	return func() {
		stripe.SetBackend(stripe.APIBackend, nil)
	}
}

func testStripeConfig() *StripeConfig {
	return &StripeConfig{
		SecretKey:     "sk_test_123456789",
		WebhookSecret: "whsec_test_123456789",
		IsTestMode:    true,
		DaysUntilDue:  30,
	}
}

func testMirrorInvoice(t *testing.T) (*domainbilling.Invoice, *tenant.Tenant) {
	t.Helper()

	account, err := tenant.NewTenant("acme-01", "Acme Dental")
	require.NoError(t, err)
	account.StripeCustomerID = "cus_test_1"

	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	inv, err := domainbilling.NewInvoice(account.ID, "INV-2026-000001", start, end,
		decimal.RequireFromString("8.875"), end.AddDate(0, 0, 30))
	require.NoError(t, err)

	item, err := domainbilling.NewLineItem("Monthly number rental", 2, decimal.RequireFromString("1.15"), domainbilling.LineItemCategoryPhoneRental)
	require.NoError(t, err)
	require.NoError(t, inv.AddLineItem(item))
	require.NoError(t, inv.Finalize())

	return inv, account
}

func TestNewStripeMirror_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *StripeConfig
	}{
		{"missing secret key", &StripeConfig{DaysUntilDue: 30}},
		{"live key in test mode", &StripeConfig{SecretKey: "sk_live_123456789", IsTestMode: true, DaysUntilDue: 30}},
		{"test key in live mode", &StripeConfig{SecretKey: "sk_test_123456789", IsTestMode: false, DaysUntilDue: 30}},
		{"zero days until due", &StripeConfig{SecretKey: "sk_test_123456789", IsTestMode: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStripeMirror(tt.config, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestStripeMirror_MirrorInvoice(t *testing.T) {
	var itemCalls, invoiceCalls, finalizeCalls int
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		switch {
		case strings.HasPrefix(path, "/v1/invoiceitems"):
			itemCalls++
			return []byte(`{"id": "ii_test_` + fmt.Sprint(itemCalls) + `"}`), nil
		case strings.HasSuffix(path, "/finalize"):
			finalizeCalls++
			return []byte(`{"id": "in_test_1", "status": "open"}`), nil
		case strings.HasPrefix(path, "/v1/invoices"):
			invoiceCalls++
			return []byte(`{"id": "in_test_1", "status": "draft"}`), nil
		}
		return nil, fmt.Errorf("unexpected path %s", path)
	})
	defer cleanup()

	mirror, err := NewStripeMirror(testStripeConfig(), zap.NewNop())
	require.NoError(t, err)

	inv, account := testMirrorInvoice(t)

	stripeInvoiceID, err := mirror.MirrorInvoice(context.Background(), inv, account)
	require.NoError(t, err)
	assert.Equal(t, "in_test_1", stripeInvoiceID)
	assert.Equal(t, 2, itemCalls, "one line item plus tax")
	assert.Equal(t, 1, invoiceCalls)
	assert.Equal(t, 1, finalizeCalls, "mirrored invoice leaves draft state")
}

func TestStripeMirror_MirrorInvoice_FinalizeError(t *testing.T) {
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		switch {
		case strings.HasPrefix(path, "/v1/invoiceitems"):
			return []byte(`{"id": "ii_test_1"}`), nil
		case strings.HasSuffix(path, "/finalize"):
			return nil, fmt.Errorf("finalize rejected")
		case strings.HasPrefix(path, "/v1/invoices"):
			return []byte(`{"id": "in_test_1", "status": "draft"}`), nil
		}
		return nil, fmt.Errorf("unexpected path %s", path)
	})
	defer cleanup()

	mirror, err := NewStripeMirror(testStripeConfig(), zap.NewNop())
	require.NoError(t, err)

	inv, account := testMirrorInvoice(t)

	_, err = mirror.MirrorInvoice(context.Background(), inv, account)
	assert.ErrorContains(t, err, "failed to finalize invoice")
}

func TestStripeMirror_MirrorInvoice_NoCustomer(t *testing.T) {
	mirror, err := NewStripeMirror(testStripeConfig(), zap.NewNop())
	require.NoError(t, err)

	inv, account := testMirrorInvoice(t)
	account.StripeCustomerID = ""

	_, err = mirror.MirrorInvoice(context.Background(), inv, account)
	assert.ErrorContains(t, err, "no stripe customer")
}

func TestStripeMirror_MirrorInvoice_ProviderError(t *testing.T) {
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, fmt.Errorf("stripe is down")
	})
	defer cleanup()

	mirror, err := NewStripeMirror(testStripeConfig(), zap.NewNop())
	require.NoError(t, err)

	inv, account := testMirrorInvoice(t)

	_, err = mirror.MirrorInvoice(context.Background(), inv, account)
	assert.Error(t, err)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(230), toCents(decimal.RequireFromString("2.30")))
	assert.Equal(t, int64(20), toCents(decimal.RequireFromString("0.204")))
	assert.Equal(t, int64(21), toCents(decimal.RequireFromString("0.205")))
	assert.Equal(t, int64(0), toCents(decimal.Zero))
}
