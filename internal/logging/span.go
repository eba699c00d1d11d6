package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one backend operation and tags every log line emitted under it.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	failed error
}

// StartSpan derives a child span from ctx. A trace identifier is created on
// the first span of a chain and inherited by nested spans.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = context.WithValue(ctx, traceIDKey, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	attrs := []any{slog.String("span_id", spanID), slog.String("span_name", name)}
	if parent := SpanIDFromContext(ctx); parent != "" {
		attrs = append(attrs, slog.String("parent_span_id", parent))
	}
	logger = logger.With(attrs...)

	ctx = WithLogger(ctx, logger)
	ctx = context.WithValue(ctx, spanIDKey, spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// Fail records err as the span outcome. End logs it at error level.
func (s *Span) Fail(err error) {
	if s == nil {
		return
	}
	s.failed = err
}

// End emits a completion entry with the elapsed duration.
func (s *Span) End() {
	if s == nil {
		return
	}
	elapsed := slog.Duration("duration", time.Since(s.start))
	if s.failed != nil {
		s.logger.Error("span failed", elapsed, slog.Any("error", s.failed))
		return
	}
	s.logger.Debug("span completed", elapsed)
}
