package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/dataflow/errors"
)

// Operation is one handled request: a span plus the request metrics.
type Operation struct {
	Service   string
	Name      string
	RequestID string
	Start     time.Time

	span    trace.Span
	metrics *Metrics
}

// StartOperation opens the span spanName and counts the request in flight.
// metrics may be nil.
func StartOperation(ctx context.Context, spanName, service, requestID string, metrics *Metrics) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, spanName, trace.WithAttributes(
		attribute.String(AttrOperationName, spanName),
		attribute.String(AttrRequestID, requestID),
	))
	op := &Operation{
		Service:   service,
		Name:      spanName,
		RequestID: requestID,
		Start:     time.Now(),
		span:      span,
		metrics:   metrics,
	}
	if metrics != nil {
		metrics.RecordRequestStart(ctx)
	}
	return ctx, op
}

// End closes the span and records the request. The status is "ok", or the
// error code of err ("INTERNAL_ERROR" for errors that carry none).
func (o *Operation) End(ctx context.Context, err error) {
	status := Status(err)
	if err != nil {
		o.span.RecordError(err)
		o.span.SetAttributes(attribute.String(AttrErrorCode, status))
	}
	o.span.SetAttributes(attribute.String(AttrStatus, status))
	o.span.End()

	if o.metrics != nil {
		o.metrics.RecordRequestEnd(ctx, o.Service, o.Name, status, o.Duration())
	}
}

// Duration returns the time since the operation started.
func (o *Operation) Duration() time.Duration {
	return time.Since(o.Start)
}

// Status maps err to the status label used by spans and metrics.
func Status(err error) string {
	if err == nil {
		return "ok"
	}
	return string(errors.Wrap(err).Code)
}
