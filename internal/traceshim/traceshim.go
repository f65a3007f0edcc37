// Package traceshim wraps the two suspension points spec.md §5 names —
// filesystem probing done by external collaborators, and toolchain-support
// queries — in an OpenTelemetry span, the way github.com/Azure/dalec wraps
// buildkit solves. Plan construction itself stays synchronous; only calls
// across these two boundaries are instrumented.
package traceshim

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/forgebuild/planner")

// Query runs fn inside a span named name, recording the error (if any) as
// the span's status. Used to wrap the toolchain SupportsFlag probes in
// module_swift.go and module_cfamily.go; filesystem reads are not wrapped.
func Query[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	v, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}
