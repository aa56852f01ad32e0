package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTELMetrics implements Recorder using OpenTelemetry.
type OTELMetrics struct {
	issueDuration  metric.Float64Histogram
	issueTotal     metric.Int64Counter
	issueRejected  metric.Int64Counter
	verifyDuration metric.Float64Histogram
	verifyTotal    metric.Int64Counter
	chainErrors    metric.Int64Counter
	rpcUp          metric.Int64Gauge
	rpcLatency     metric.Float64Histogram
}

func NewOTELMetrics(meter metric.Meter) (*OTELMetrics, error) {
	m := &OTELMetrics{}
	var err error

	m.issueDuration, err = meter.Float64Histogram("rootcred.issue.duration",
		metric.WithDescription("Time from submission to confirmed attestation"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.issueTotal, err = meter.Int64Counter("rootcred.issue.total",
		metric.WithDescription("Credential submissions by outcome"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	m.issueRejected, err = meter.Int64Counter("rootcred.issue.rejected",
		metric.WithDescription("Submissions rejected before reaching the chain"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	m.verifyDuration, err = meter.Float64Histogram("rootcred.verify.duration",
		metric.WithDescription("Time to fetch and decode an attestation"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.verifyTotal, err = meter.Int64Counter("rootcred.verify.total",
		metric.WithDescription("Verification lookups by outcome"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	m.chainErrors, err = meter.Int64Counter("rootcred.chain.errors",
		metric.WithDescription("Chain access errors by operation and type"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	m.rpcUp, err = meter.Int64Gauge("rootcred.rpc.up",
		metric.WithDescription("1 when the last RPC probe succeeded"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	m.rpcLatency, err = meter.Float64Histogram("rootcred.rpc.latency",
		metric.WithDescription("Latency of RPC health probes"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *OTELMetrics) RecordIssue(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.issueTotal.Add(ctx, 1, attrs)
	m.issueDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *OTELMetrics) RecordIssueRejected(ctx context.Context, reason string) {
	m.issueRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *OTELMetrics) RecordVerify(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.verifyTotal.Add(ctx, 1, attrs)
	m.verifyDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *OTELMetrics) RecordChainError(ctx context.Context, operation, errType string) {
	m.chainErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("error_type", errType)))
}

func (m *OTELMetrics) RecordRPCHealth(ctx context.Context, healthy bool, latency time.Duration) {
	var up int64
	if healthy {
		up = 1
	}
	m.rpcUp.Record(ctx, up)
	m.rpcLatency.Record(ctx, latency.Seconds())
}
