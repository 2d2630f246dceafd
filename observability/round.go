package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RoundTracker ties the span and the metric recording of one discovery round
// together. A nil Metrics skips metric recording.
type RoundTracker struct {
	RoundID   string
	Namespace string
	Selector  string
	StartTime time.Time
	Metrics   *Metrics

	span trace.Span
}

// NewRoundTracker creates a tracker for the given round.
func NewRoundTracker(roundID, namespace, selector string, metrics *Metrics) *RoundTracker {
	return &RoundTracker{
		RoundID:   roundID,
		Namespace: namespace,
		Selector:  selector,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type roundTrackerKey struct{}

// WithRoundTracker stores a RoundTracker in the context.
func WithRoundTracker(ctx context.Context, rt *RoundTracker) context.Context {
	return context.WithValue(ctx, roundTrackerKey{}, rt)
}

// RoundTrackerFromContext retrieves the RoundTracker from context, or nil.
func RoundTrackerFromContext(ctx context.Context) *RoundTracker {
	if rt, ok := ctx.Value(roundTrackerKey{}).(*RoundTracker); ok {
		return rt
	}
	return nil
}

// Start opens the round span and returns a context carrying both the span
// and the tracker.
func (rt *RoundTracker) Start(ctx context.Context) context.Context {
	ctx, span := StartSpan(ctx, SpanRound, trace.WithAttributes(
		attribute.String(AttrRoundID, rt.RoundID),
		attribute.String(AttrNamespace, rt.Namespace),
		attribute.String(AttrSelector, rt.Selector),
	))
	rt.span = span
	return WithRoundTracker(ctx, rt)
}

// Inventory records the pod counts seen by the round.
func (rt *RoundTracker) Inventory(ctx context.Context, ready, notReady int) {
	if rt.span != nil {
		rt.span.SetAttributes(attribute.Int(AttrPods, ready+notReady))
	}
	if rt.Metrics != nil {
		rt.Metrics.RecordInventory(ctx, rt.Namespace, ready, notReady)
	}
}

// Endpoints records the number of resolved endpoints.
func (rt *RoundTracker) Endpoints(ctx context.Context, n int) {
	if rt.span != nil {
		rt.span.SetAttributes(attribute.Int(AttrEndpoints, n))
	}
	if rt.Metrics != nil {
		rt.Metrics.RecordEndpoints(ctx, rt.Namespace, n)
	}
}

// Dispatched records one dispatch and its error, if any.
func (rt *RoundTracker) Dispatched(ctx context.Context, peer string, err error) {
	if err != nil && rt.span != nil {
		rt.span.AddEvent("dispatch failed", trace.WithAttributes(
			attribute.String(AttrPeer, peer),
			attribute.String("error.message", err.Error()),
		))
	}
	if rt.Metrics != nil {
		rt.Metrics.RecordDispatch(ctx, rt.Namespace, err != nil)
	}
}

// End closes the span and records the round outcome.
func (rt *RoundTracker) End(ctx context.Context, outcome string, err error) {
	duration := time.Since(rt.StartTime)
	if rt.span != nil {
		if err != nil {
			rt.span.RecordError(err)
		}
		rt.span.SetAttributes(
			attribute.String(AttrOutcome, outcome),
			attribute.Int64(AttrDurationMs, duration.Milliseconds()),
		)
		rt.span.End()
	}
	if rt.Metrics != nil {
		rt.Metrics.RecordRound(ctx, rt.Namespace, outcome, duration)
	}
}

// Duration returns the elapsed time since the round started.
func (rt *RoundTracker) Duration() time.Duration {
	return time.Since(rt.StartTime)
}
