package metrics

import (
	"context"
	"time"
)

// NoOpMetrics is a no-op implementation of Recorder.
type NoOpMetrics struct{}

func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

func (n *NoOpMetrics) RecordIssue(ctx context.Context, outcome string, duration time.Duration) {}

func (n *NoOpMetrics) RecordIssueRejected(ctx context.Context, reason string) {}

func (n *NoOpMetrics) RecordVerify(ctx context.Context, outcome string, duration time.Duration) {}

func (n *NoOpMetrics) RecordChainError(ctx context.Context, operation, errType string) {}

func (n *NoOpMetrics) RecordRPCHealth(ctx context.Context, healthy bool, latency time.Duration) {}
