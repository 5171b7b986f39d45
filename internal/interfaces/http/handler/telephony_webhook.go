package handler

import (
	"net/http"

	usageapp "github.com/BoweryJG/osbackend-sub001/internal/application/usage"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// TelephonyWebhookHandler receives provider status callbacks for calls
// and messages. The provider delivers these as form-encoded POSTs and
// retries on non-2xx, so non-billable states are acknowledged with 200
// rather than rejected.
type TelephonyWebhookHandler struct {
	BaseHandler
	webhookService *usageapp.WebhookService
}

// NewTelephonyWebhookHandler creates a new TelephonyWebhookHandler
func NewTelephonyWebhookHandler(webhookService *usageapp.WebhookService) *TelephonyWebhookHandler {
	return &TelephonyWebhookHandler{webhookService: webhookService}
}

// CallStatusRequest is the provider's call status callback body
type CallStatusRequest struct {
	CallSid      string `form:"CallSid" binding:"required"`
	From         string `form:"From"`
	To           string `form:"To"`
	Direction    string `form:"Direction"`
	CallStatus   string `form:"CallStatus" binding:"required"`
	CallDuration string `form:"CallDuration"`
	Price        string `form:"Price"`
	PriceUnit    string `form:"PriceUnit"`
	Timestamp    string `form:"Timestamp"`
}

// MessageStatusRequest is the provider's message status callback body
type MessageStatusRequest struct {
	MessageSid    string `form:"MessageSid" binding:"required"`
	From          string `form:"From"`
	To            string `form:"To"`
	Direction     string `form:"Direction"`
	MessageStatus string `form:"MessageStatus" binding:"required"`
	NumSegments   string `form:"NumSegments"`
	NumMedia      string `form:"NumMedia"`
	Price         string `form:"Price"`
	PriceUnit     string `form:"PriceUnit"`
	Timestamp     string `form:"Timestamp"`
}

// WebhookAckResponse reports what the callback did. Recorded is false
// when the event was acknowledged but not billable.
type WebhookAckResponse struct {
	Recorded  bool   `json:"recorded"`
	Duplicate bool   `json:"duplicate,omitempty"`
	RecordID  string `json:"record_id,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
}

// HandleCallStatus records usage for a completed call
func (h *TelephonyWebhookHandler) HandleCallStatus(c *gin.Context) {
	var req CallStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.webhookService.HandleCallCompleted(c.Request.Context(), usageapp.CallEvent{
		CallSID:      req.CallSid,
		From:         req.From,
		To:           req.To,
		Direction:    req.Direction,
		CallStatus:   req.CallStatus,
		CallDuration: req.CallDuration,
		Price:        req.Price,
		PriceUnit:    req.PriceUnit,
		Timestamp:    req.Timestamp,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ackResponse(result))
}

// HandleMessageStatus records usage for a delivered message
func (h *TelephonyWebhookHandler) HandleMessageStatus(c *gin.Context) {
	var req MessageStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.webhookService.HandleMessageDelivered(c.Request.Context(), usageapp.MessageEvent{
		MessageSID:    req.MessageSid,
		From:          req.From,
		To:            req.To,
		Direction:     req.Direction,
		MessageStatus: req.MessageStatus,
		NumSegments:   req.NumSegments,
		NumMedia:      req.NumMedia,
		Price:         req.Price,
		PriceUnit:     req.PriceUnit,
		Timestamp:     req.Timestamp,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ackResponse(result))
}

func ackResponse(result *usageapp.RecordUsageResult) WebhookAckResponse {
	if result == nil {
		return WebhookAckResponse{Recorded: false}
	}
	return WebhookAckResponse{
		Recorded:  true,
		Duplicate: result.Duplicate,
		RecordID:  result.RecordID.String(),
		TenantID:  result.TenantID.String(),
	}
}
