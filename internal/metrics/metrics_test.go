package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap/zaptest"
)

func TestNoOpMetrics(t *testing.T) {
	m := NewNoOpMetrics()
	ctx := context.Background()

	m.RecordIssue(ctx, "success", time.Second)
	m.RecordIssueRejected(ctx, "validation")
	m.RecordVerify(ctx, "found", time.Millisecond)
	m.RecordChainError(ctx, "fetch", "timeout")
	m.RecordRPCHealth(ctx, true, time.Millisecond)
}

func TestOTELMetrics(t *testing.T) {
	m, err := NewOTELMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordIssue(ctx, "error", 2*time.Second)
	m.RecordIssueRejected(ctx, "rate_limited")
	m.RecordVerify(ctx, "not_found", time.Millisecond)
	m.RecordChainError(ctx, "submit", "reverted")
	m.RecordRPCHealth(ctx, false, time.Second)
}

func TestNewRecorder(t *testing.T) {
	r := NewRecorder(zaptest.NewLogger(t))
	assert.NotNil(t, r)
	r.RecordVerify(context.Background(), "found", time.Millisecond)
}
