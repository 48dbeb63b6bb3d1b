// Package otel provides OpenTelemetry span helpers shared by the sync stages.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on sync spans.
const (
	AttrRunID       = attribute.Key("sync.run_id")
	AttrActivityID  = attribute.Key("activity.id")
	AttrPage        = attribute.Key("pagination.page")
	AttrPageSize    = attribute.Key("pagination.limit")
	AttrResultCount = attribute.Key("result.count")
	AttrOutputPath  = attribute.Key("output.path")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns the span
// already in the context (a no-op span when there is none).
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on the span and marks it failed. Nil span or error is a no-op.
// The status description stays generic so URLs with ids or tokens do not leak into it.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
