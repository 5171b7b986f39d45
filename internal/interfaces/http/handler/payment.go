package handler

import (
	billingapp "github.com/BoweryJG/osbackend-sub001/internal/application/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/dto"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler serves manual payment recording and lookup
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RecordPaymentRequest describes a received payment. Amount is a
// decimal string to avoid float rounding on money.
type RecordPaymentRequest struct {
	TenantID  string `json:"tenant_id" binding:"required,uuid"`
	InvoiceID string `json:"invoice_id" binding:"omitempty,uuid"`
	Amount    string `json:"amount" binding:"required"`
	Method    string `json:"method" binding:"required,oneof=card ach wire check cash credit"`
	Reference string `json:"reference" binding:"omitempty,max=128"`
	Notes     string `json:"notes" binding:"omitempty,max=1024"`
}

// RecordPayment stores a payment and applies it to the targeted
// invoice; any excess over the invoice outstanding credits the tenant
// balance
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		h.BadRequest(c, "Invalid tenant_id")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid amount, expected a decimal string")
		return
	}

	input := billingapp.RecordPaymentInput{
		TenantID:  tenantID,
		Amount:    amount,
		Method:    billing.PaymentMethod(req.Method),
		Reference: req.Reference,
		Notes:     req.Notes,
	}
	if req.InvoiceID != "" {
		invoiceID, err := uuid.Parse(req.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice_id")
			return
		}
		input.InvoiceID = &invoiceID
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, NewPaymentResultView(result))
}

// ListPaymentsRequest filters the payment list
type ListPaymentsRequest struct {
	TenantID  string `form:"tenant_id" binding:"omitempty,uuid"`
	InvoiceID string `form:"invoice_id" binding:"omitempty,uuid"`
	Status    string `form:"status"`
	Search    string `form:"search"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListPayments lists payments with optional tenant/invoice/status filters
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var req ListPaymentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := billing.NewPaymentFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	filter.Search = req.Search
	if req.TenantID != "" {
		tenantID, err := uuid.Parse(req.TenantID)
		if err != nil {
			h.BadRequest(c, "Invalid tenant_id")
			return
		}
		filter.TenantID = &tenantID
	}
	if req.InvoiceID != "" {
		invoiceID, err := uuid.Parse(req.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice_id")
			return
		}
		filter.InvoiceID = &invoiceID
	}
	if req.Status != "" {
		status := billing.PaymentStatus(req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Unknown payment status")
			return
		}
		filter.Status = &status
	}

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, NewPaymentViews(payments), total, filter.Page, filter.PageSize)
}

// GetPayment returns one payment by id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	id, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid payment id")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, NewPaymentView(payment))
}
