package handler

import (
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/tenant"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/dto"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActivityHandler serves a tenant's billing activity feed
type ActivityHandler struct {
	BaseHandler
	tenantRepo   tenant.Repository
	activityRepo tenant.ActivityLogRepository
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(tenantRepo tenant.Repository, activityRepo tenant.ActivityLogRepository) *ActivityHandler {
	return &ActivityHandler{tenantRepo: tenantRepo, activityRepo: activityRepo}
}

// ActivityListRequest filters the activity feed
type ActivityListRequest struct {
	Start    string `form:"start"`
	End      string `form:"end"`
	Type     string `form:"type"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListActivity lists a tenant's activity entries, newest first
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	tenantID, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid tenant id")
		return
	}

	var req ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := tenant.ActivityLogFilter{Page: 1, PageSize: 50}
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
		activityType := tenant.ActivityType(req.Type)
		if !activityType.IsValid() {
			h.BadRequest(c, "Unknown activity type")
			return
		}
		filter.Types = []tenant.ActivityType{activityType}
	}

	if _, err := h.tenantRepo.FindByID(c.Request.Context(), tenantID); err != nil {
		h.HandleError(c, err)
		return
	}

	entries, total, err := h.activityRepo.FindByTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, NewActivityViews(entries), total, filter.Page, filter.PageSize)
}
