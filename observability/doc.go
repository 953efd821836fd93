// Package observability wires OpenTelemetry tracing and metrics into the
// schedule service and aggregates component health.
//
// Init installs OTLP/HTTP trace and metric providers as the otel globals.
// Instruments and spans created earlier through Meter and StartSpan delegate
// to them once installed:
//
//	providers, err := observability.Init(ctx, observability.DefaultConfig("sdfsched"))
//	defer providers.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("sdfsched"))
//
// A handled request is an Operation. End derives the status label from the
// error code, so spans and metrics agree with the HTTP error body:
//
//	ctx, op := observability.StartOperation(ctx, observability.SpanScheduleCreate, "sdfsched", requestID, metrics)
//	err := handle(ctx)
//	op.End(ctx, err)
//
// Health checks run concurrently:
//
//	sh := observability.NewServiceHealth("sdfsched", version)
//	sh.CheckAll(ctx, cache, scheduler)
package observability
