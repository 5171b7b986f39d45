package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newPaymentRouter() *gin.Engine {
	h := NewPaymentHandler(nil)
	router := gin.New()
	router.POST("/api/v1/payments", h.RecordPayment)
	router.GET("/api/v1/payments", h.ListPayments)
	router.GET("/api/v1/payments/:id", h.GetPayment)
	return router
}

func TestRecordPayment_Validation(t *testing.T) {
	router := newPaymentRouter()

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"bad tenant id", `{"tenant_id":"nope","amount":"10.00","method":"card"}`},
		{"missing amount", `{"tenant_id":"91f3c5a8-0f6c-4a3e-9d28-6cf781f3f8ad","method":"card"}`},
		{"non-decimal amount", `{"tenant_id":"91f3c5a8-0f6c-4a3e-9d28-6cf781f3f8ad","amount":"ten dollars","method":"card"}`},
		{"unknown method", `{"tenant_id":"91f3c5a8-0f6c-4a3e-9d28-6cf781f3f8ad","amount":"10.00","method":"barter"}`},
		{"bad invoice id", `{"tenant_id":"91f3c5a8-0f6c-4a3e-9d28-6cf781f3f8ad","invoice_id":"xyz","amount":"10.00","method":"card"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/api/v1/payments", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestListPayments_Validation(t *testing.T) {
	router := newPaymentRouter()

	tests := []struct {
		name string
		path string
	}{
		{"bad invoice filter", "/api/v1/payments?invoice_id=abc"},
		{"unknown status", "/api/v1/payments?status=lost"},
		{"page size over limit", "/api/v1/payments?page_size=9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getPath(router, tt.path)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetPayment_MalformedID(t *testing.T) {
	router := newPaymentRouter()

	w := getPath(router, "/api/v1/payments/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
