package handler

import (
	"time"

	usageapp "github.com/BoweryJG/osbackend-sub001/internal/application/usage"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/dto"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UsageHandler serves usage statistics and per-number usage history
type UsageHandler struct {
	BaseHandler
	usageService *usageapp.Service
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(usageService *usageapp.Service) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// TenantUsageRequest selects the tenant and reporting window
type TenantUsageRequest struct {
	TenantID string `form:"tenant_id" binding:"required,uuid"`
	Start    string `form:"start" binding:"required"`
	End      string `form:"end" binding:"required"`
}

// GetTenantUsage returns aggregated usage for a tenant over a window
func (h *UsageHandler) GetTenantUsage(c *gin.Context) {
	var req TenantUsageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		h.BadRequest(c, "Invalid tenant_id")
		return
	}

	start, end, ok := h.parseWindow(c, req.Start, req.End)
	if !ok {
		return
	}

	stats, err := h.usageService.GetTenantUsage(c.Request.Context(), tenantID, start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// PhoneNumberUsageRequest filters a number's usage history
type PhoneNumberUsageRequest struct {
	Start    string `form:"start"`
	End      string `form:"end"`
	Type     string `form:"type"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPhoneNumberUsage lists usage records for one number, newest first
func (h *UsageHandler) GetPhoneNumberUsage(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	numberID, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid phone number id")
		return
	}

	var req PhoneNumberUsageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := telephony.DefaultUsageRecordFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.Start != "" {
		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			h.BadRequest(c, "Invalid start time, expected RFC3339")
			return
		}
		filter.Start = &start
	}
	if req.End != "" {
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			h.BadRequest(c, "Invalid end time, expected RFC3339")
			return
		}
		filter.End = &end
	}
	if req.Type != "" {
		usageType := telephony.UsageType(req.Type)
		if !usageType.IsValid() {
			h.BadRequest(c, "Unknown usage type")
			return
		}
		filter.Types = []telephony.UsageType{usageType}
	}

	page, err := h.usageService.GetPhoneNumberUsage(c.Request.Context(), numberID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, NewUsageRecordViews(page.Records), page.Total, page.Page, page.PageSize)
}

// parseWindow parses a required RFC3339 half-open window and rejects
// inverted ranges
func (h *BaseHandler) parseWindow(c *gin.Context, startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		h.BadRequest(c, "Invalid start time, expected RFC3339")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		h.BadRequest(c, "Invalid end time, expected RFC3339")
		return time.Time{}, time.Time{}, false
	}
	if !end.After(start) {
		h.BadRequest(c, "End must be after start")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
