// Package metrics provides observability for credential issuance and verification.
// It uses a plugin pattern so that nothing is recorded when OpenTelemetry is not configured.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const meterName = "github.com/trufnetwork/rootcred"

// Recorder defines the interface for recording rootcred metrics.
type Recorder interface {
	// Issuance
	RecordIssue(ctx context.Context, outcome string, duration time.Duration)
	RecordIssueRejected(ctx context.Context, reason string)

	// Verification
	RecordVerify(ctx context.Context, outcome string, duration time.Duration)

	// Chain access
	RecordChainError(ctx context.Context, operation, errType string)
	RecordRPCHealth(ctx context.Context, healthy bool, latency time.Duration)
}

// NewRecorder returns an OpenTelemetry recorder backed by the global meter
// provider, or a no-op recorder if instruments cannot be created.
func NewRecorder(logger *zap.Logger) Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := otel.GetMeterProvider().Meter(meterName)

	m, err := NewOTELMetrics(meter)
	if err != nil {
		logger.Warn("failed to initialize OTEL metrics, falling back to no-op", zap.Error(err))
		return NewNoOpMetrics()
	}
	logger.Debug("OpenTelemetry metrics initialized")
	return m
}
