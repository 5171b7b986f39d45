package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// HealthChecker probes one dependency for readiness
type HealthChecker func() error

// SystemHandler handles health and system endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
	checks    map[string]HealthChecker
}

// NewSystemHandler creates a new SystemHandler. Checks are probed by
// the readiness endpoint; the liveness endpoint never touches them.
func NewSystemHandler(version string, checks map[string]HealthChecker) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
		checks:    checks,
	}
}

// HealthResponse represents the liveness response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health reports process liveness
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(HealthResponse{
		Status:    "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}

// ReadinessResponse represents the readiness response with per-dependency results
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Ready reports whether every dependency answers. Any failing check
// turns the whole response into 503 so load balancers stop routing.
func (h *SystemHandler) Ready(c *gin.Context) {
	resp := ReadinessResponse{
		Status: "ready",
		Checks: make(map[string]string, len(h.checks)),
	}

	healthy := true
	for name, check := range h.checks {
		if err := check(); err != nil {
			healthy = false
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	if !healthy {
		resp.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
