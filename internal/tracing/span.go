package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartBenchmarkSpan starts the parent span of a benchmark sweep.
func StartBenchmarkSpan(ctx context.Context, tracer trace.Tracer, runID string, seed int64, trials int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "outbreak benchmark",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("outbreak.run_id", runID),
			attribute.Int64("outbreak.seed", seed),
			attribute.Int("outbreak.trials", trials),
		),
	)
}

// StartRunSpan starts a span for one sequential or parallel run.
func StartRunSpan(ctx context.Context, tracer trace.Tracer, mode string, workers, trials int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "outbreak "+mode,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("outbreak.mode", mode),
			attribute.Int("outbreak.workers", workers),
			attribute.Int("outbreak.trials", trials),
		),
	)
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
