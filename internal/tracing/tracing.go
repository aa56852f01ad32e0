// Package tracing wraps rootcred operations in OpenTelemetry spans.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/trufnetwork/rootcred"

var tracer = otel.Tracer(instrumentationName)

// UseProvider routes spans started by TraceOp to tp instead of the global
// provider.
func UseProvider(tp trace.TracerProvider) {
	tracer = tp.Tracer(instrumentationName)
}

// Operation names used as span names.
type Operation string

const (
	OpBuildReadClient    Operation = "eas.build_read_client"
	OpBuildSigningClient Operation = "eas.build_signing_client"
	OpSubmitAttestation  Operation = "eas.submit_attestation"
	OpFetchAttestation   Operation = "eas.fetch_attestation"
	OpRegisterSchema     Operation = "eas.register_schema"
	OpWaitReceipt        Operation = "eas.wait_receipt"
	OpHTTPRequest        Operation = "http.request"
)

// TraceOp wraps any operation with a span.
func TraceOp(ctx context.Context, op Operation, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, string(op), trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Traced runs fn inside a span and ends the span with fn's error.
func Traced[T any](ctx context.Context, op Operation, fn func(context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	traceCtx, end := TraceOp(ctx, op, attrs...)
	defer func() {
		if r := recover(); r != nil {
			end(nil)
			panic(r)
		}
	}()

	result, err := fn(traceCtx)
	end(err)
	return result, err
}
