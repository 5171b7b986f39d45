package handler

import (
	"context"

	billingapp "github.com/BoweryJG/osbackend-sub001/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// OverdueSweeper runs one overdue sweep pass
type OverdueSweeper interface {
	Run(ctx context.Context) (*billingapp.SweepResult, error)
}

// AdminHandler serves operational endpoints that are not part of the
// public API surface
type AdminHandler struct {
	BaseHandler
	sweeper OverdueSweeper
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(sweeper OverdueSweeper) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// TriggerSweep runs the overdue sweep outside its schedule. The sweep
// takes the same distributed lock as the scheduled run, so a trigger
// during a running sweep reports ran=false instead of racing it.
func (h *AdminHandler) TriggerSweep(c *gin.Context) {
	result, err := h.sweeper.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
