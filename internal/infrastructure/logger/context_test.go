package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRequestID(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	log := zap.New(core)

	ctx, log := WithRequestID(context.Background(), log, "req-abc123")
	assert.Equal(t, "req-abc123", GetRequestID(ctx))

	log.Info("invoice generated")
	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-abc123", entries[0].ContextMap()["request_id"])
}

func TestWithTenantID(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	log := zap.New(core)

	ctx, log := WithTenantID(context.Background(), log, "tenant-acme")
	assert.Equal(t, "tenant-acme", GetTenantID(ctx))

	log.Info("usage recorded")
	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "tenant-acme", entries[0].ContextMap()["tenant_id"])
}

func TestContextChaining(t *testing.T) {
	log := zap.NewNop()
	ctx := context.Background()

	ctx, log = WithRequestID(ctx, log, "req-1")
	ctx, log = WithTenantID(ctx, log, "tenant-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "tenant-1", GetTenantID(ctx))
	assert.NotNil(t, log)
}

func TestRequestIDOverwrite(t *testing.T) {
	log := zap.NewNop()
	ctx := context.Background()

	ctx, log = WithRequestID(ctx, log, "first")
	ctx, _ = WithRequestID(ctx, log, "second")

	assert.Equal(t, "second", GetRequestID(ctx))
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))

	// A plain string key must not collide with the typed one.
	ctx := context.WithValue(context.Background(), "request_id", "req-1") //nolint:staticcheck
	assert.Empty(t, GetRequestID(ctx))
}

func TestGetTenantID_Missing(t *testing.T) {
	assert.Empty(t, GetTenantID(context.Background()))
}
