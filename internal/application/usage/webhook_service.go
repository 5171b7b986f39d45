package usage

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CallEvent is the provider's call status callback payload, delivered
// as form fields when a call completes
type CallEvent struct {
	CallSID      string
	From         string
	To           string
	Direction    string // "inbound" or "outbound-api"/"outbound-dial"
	CallStatus   string
	CallDuration string // seconds, as a string
	Price        string // provider-reported charge, decimal string, often negative
	PriceUnit    string // ISO currency, e.g. "USD"
	Timestamp    string // RFC1123 per provider convention
}

// MessageEvent is the provider's message status callback payload
type MessageEvent struct {
	MessageSID    string
	From          string
	To            string
	Direction     string
	MessageStatus string
	NumSegments   string
	NumMedia      string
	Price         string
	PriceUnit     string
	Timestamp     string
}

// WebhookService translates provider callbacks into usage records
type WebhookService struct {
	usage  *Service
	logger *zap.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(usage *Service, logger *zap.Logger) *WebhookService {
	return &WebhookService{usage: usage, logger: logger}
}

// HandleCallCompleted records a completed call. Non-terminal call
// states are acknowledged without recording; only "completed" bills.
func (s *WebhookService) HandleCallCompleted(ctx context.Context, event CallEvent) (*RecordUsageResult, error) {
	if event.CallSID == "" {
		return nil, shared.NewDomainError("INVALID_EVENT", "CallSid is required")
	}
	if event.CallStatus != "completed" {
		s.logger.Debug("ignoring non-billable call state",
			zap.String("call_sid", event.CallSID),
			zap.String("status", event.CallStatus))
		return nil, nil
	}

	inbound := strings.EqualFold(event.Direction, "inbound")
	usageType := telephony.CallType(inbound)

	duration, err := strconv.ParseInt(strings.TrimSpace(event.CallDuration), 10, 64)
	if err != nil || duration < 0 {
		return nil, shared.NewDomainError("INVALID_EVENT", "CallDuration must be a non-negative integer")
	}

	// Inbound calls arrive on our number (To); outbound originate from it.
	number := event.To
	if !inbound {
		number = event.From
	}

	return s.usage.RecordUsage(ctx, RecordUsageInput{
		Number:          number,
		Type:            usageType,
		From:            event.From,
		To:              event.To,
		DurationSeconds: duration,
		Cost:            providerPrice(event.Price, event.PriceUnit),
		ProviderRef:     event.CallSID,
		OccurredAt:      parseProviderTime(event.Timestamp),
		Metadata: map[string]any{
			"direction": event.Direction,
		},
	})
}

// HandleMessageDelivered records a delivered message. Only terminal
// delivered/received states bill; queued and sending are acknowledged
// without recording.
func (s *WebhookService) HandleMessageDelivered(ctx context.Context, event MessageEvent) (*RecordUsageResult, error) {
	if event.MessageSID == "" {
		return nil, shared.NewDomainError("INVALID_EVENT", "MessageSid is required")
	}
	switch event.MessageStatus {
	case "delivered", "received":
	default:
		s.logger.Debug("ignoring non-billable message state",
			zap.String("message_sid", event.MessageSID),
			zap.String("status", event.MessageStatus))
		return nil, nil
	}

	inbound := strings.EqualFold(event.Direction, "inbound")

	numMedia, _ := strconv.ParseInt(strings.TrimSpace(event.NumMedia), 10, 64)
	segments, err := strconv.ParseInt(strings.TrimSpace(event.NumSegments), 10, 64)
	if err != nil || segments < 1 {
		segments = 1
	}

	usageType := telephony.MessageType(inbound, int(numMedia))
	quantity := segments
	if usageType.Class() == telephony.UsageClassMessage && numMedia > 0 {
		quantity = numMedia
	}

	number := event.To
	if !inbound {
		number = event.From
	}

	return s.usage.RecordUsage(ctx, RecordUsageInput{
		Number:      number,
		Type:        usageType,
		From:        event.From,
		To:          event.To,
		Quantity:    quantity,
		Cost:        providerPrice(event.Price, event.PriceUnit),
		ProviderRef: event.MessageSID,
		OccurredAt:  parseProviderTime(event.Timestamp),
		Metadata: map[string]any{
			"direction":    event.Direction,
			"num_segments": segments,
			"num_media":    numMedia,
		},
	})
}

// providerPrice parses the provider's reported charge. Providers send
// charges as negative amounts from their own perspective, so the
// absolute value is the cost to the tenant. A missing, malformed or
// non-USD price returns nil and the rate table prices the event.
func providerPrice(price, unit string) *decimal.Decimal {
	price = strings.TrimSpace(price)
	if price == "" {
		return nil
	}
	if unit != "" && !strings.EqualFold(unit, "USD") {
		return nil
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil
	}
	d = d.Abs()
	return &d
}

func parseProviderTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
