package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey keeps this package's context values from colliding with
// other packages using plain strings.
type contextKey string

const (
	// RequestIDKey carries the request ID through call chains that
	// cross the HTTP layer, so repository logs can be correlated.
	RequestIDKey contextKey = "request_id"
	// TenantIDKey carries the tenant whose data the request touches.
	TenantIDKey contextKey = "tenant_id"
)

// WithRequestID stores the request ID on the context and returns the
// logger tagged with it.
func WithRequestID(ctx context.Context, log *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return context.WithValue(ctx, RequestIDKey, requestID),
		log.With(zap.String("request_id", requestID))
}

// WithTenantID stores the tenant ID on the context and returns the
// logger tagged with it.
func WithTenantID(ctx context.Context, log *zap.Logger, tenantID string) (context.Context, *zap.Logger) {
	return context.WithValue(ctx, TenantIDKey, tenantID),
		log.With(zap.String("tenant_id", tenantID))
}

// GetRequestID returns the request ID from the context, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// GetTenantID returns the tenant ID from the context, or "".
func GetTenantID(ctx context.Context) string {
	id, _ := ctx.Value(TenantIDKey).(string)
	return id
}
