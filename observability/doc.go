// Package observability provides OpenTelemetry tracing and metrics for
// discovery rounds, plus the health aggregate served by the admin endpoint.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("kubeping"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("kubeping"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("kubeping"))
//
// Rounds:
//
//	rt := observability.NewRoundTracker(id, namespace, selector, metrics)
//	ctx = rt.Start(ctx)
//	rt.Endpoints(ctx, len(endpoints))
//	rt.End(ctx, observability.OutcomeOK, nil)
package observability
