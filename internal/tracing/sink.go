package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/funcprof/internal/profiler"
)

// StartRunSpan starts the parent span for one profiling run.
func StartRunSpan(ctx context.Context, tracer trace.Tracer, runID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "funcprof run",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(attribute.String("funcprof.run_id", runID))
	return ctx, span
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

// SpanSink turns every profile report into a zero-length span under the
// context it was created with. It is safe for concurrent use.
type SpanSink struct {
	ctx    context.Context
	tracer trace.Tracer
}

func NewSpanSink(ctx context.Context, tracer trace.Tracer) *SpanSink {
	return &SpanSink{ctx: ctx, tracer: tracer}
}

// Report implements profiler.Sink.
func (s *SpanSink) Report(st profiler.Stats) {
	var opts []trace.SpanStartOption
	if !st.ReportedAt.IsZero() {
		opts = append(opts, trace.WithTimestamp(st.ReportedAt))
	}
	_, span := s.tracer.Start(s.ctx, "profile "+st.Site, opts...)
	span.SetAttributes(Attributes(st)...)

	var endOpts []trace.SpanEndOption
	if !st.ReportedAt.IsZero() {
		endOpts = append(endOpts, trace.WithTimestamp(st.ReportedAt))
	}
	span.End(endOpts...)
}

// Attributes describes a report as span attributes.
func Attributes(st profiler.Stats) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("funcprof.site", st.Site),
		attribute.Int64("funcprof.goroutine", st.Goroutine),
		attribute.Int64("funcprof.count", int64(st.Count)),
		attribute.Bool("funcprof.final", st.Final),
		attribute.Float64("funcprof.wall.avg_ms", st.Wall.MeanMs),
		attribute.Float64("funcprof.wall.total_ms", st.Wall.TotalMs),
		attribute.Float64("funcprof.wall.min_ms", st.Wall.MinMs),
		attribute.Float64("funcprof.wall.max_ms", st.Wall.MaxMs),
	}
	if st.Wall.Percentiles {
		attrs = append(attrs,
			attribute.Float64("funcprof.wall.p50_ms", st.Wall.P50Ms),
			attribute.Float64("funcprof.wall.p90_ms", st.Wall.P90Ms),
			attribute.Float64("funcprof.wall.p99_ms", st.Wall.P99Ms),
		)
	}
	if st.CPU != nil {
		attrs = append(attrs,
			attribute.Float64("funcprof.cpu.avg_ms", st.CPU.MeanMs),
			attribute.Float64("funcprof.cpu.total_ms", st.CPU.TotalMs),
			attribute.Float64("funcprof.cpu.max_ms", st.CPU.MaxMs),
		)
	}
	return attrs
}
