package handler

import (
	billingapp "github.com/BoweryJG/osbackend-sub001/internal/application/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/dto"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceHandler serves invoice generation and lookup
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// GenerateInvoiceRequest selects the tenant and billing period
type GenerateInvoiceRequest struct {
	TenantID    string `json:"tenant_id" binding:"required,uuid"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

// GenerateInvoice builds the invoice for a tenant's billing period.
// Generation is idempotent: a repeat call for the same period returns
// the existing invoice with 200 instead of 201.
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		h.BadRequest(c, "Invalid tenant_id")
		return
	}

	start, end, ok := h.parseWindow(c, req.PeriodStart, req.PeriodEnd)
	if !ok {
		return
	}

	result, err := h.invoiceService.GenerateInvoice(c.Request.Context(), billingapp.GenerateInvoiceInput{
		TenantID:    tenantID,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Created {
		h.Created(c, NewInvoiceView(result.Invoice))
		return
	}
	h.Success(c, NewInvoiceView(result.Invoice))
}

// ListInvoicesRequest filters the invoice list
type ListInvoicesRequest struct {
	TenantID string `form:"tenant_id" binding:"omitempty,uuid"`
	Status   string `form:"status"`
	Year     int    `form:"year" binding:"omitempty,min=2000,max=2200"`
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListInvoices lists invoices with optional tenant/status/year filters
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := billing.NewInvoiceFilter()
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
	if req.Status != "" {
		status := billing.InvoiceStatus(req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Unknown invoice status")
			return
		}
		filter.Status = &status
	}
	if req.Year > 0 {
		filter.Year = &req.Year
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, NewInvoiceViews(invoices), total, filter.Page, filter.PageSize)
}

// GetInvoice returns one invoice by id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	id, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice id")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, NewInvoiceView(invoice))
}
