package cloudevents

import (
	"context"

	"github.com/LocalHostDiluk/reinicializado/pkg/tracing"
)

// Extension attribute names, also used as ce- prefixed message headers.
const (
	ExtCorrelationID = "retailcorrelationid"
	ExtActorID       = "retailactorid"
	ExtTraceParent   = "traceparent"
	ExtTraceState    = "tracestate"
)

// SetTraceContext copies the W3C trace context of ctx onto the event so the
// relay can continue the trace that produced it.
func (e *CloudEvent) SetTraceContext(ctx context.Context) {
	carrier := tracing.MapCarrier{}
	tracing.InjectTraceContext(ctx, carrier)
	e.TraceParent = carrier[ExtTraceParent]
	e.TraceState = carrier[ExtTraceState]
}

// TraceContext returns a context carrying the trace stored on the event.
func (e *CloudEvent) TraceContext(ctx context.Context) context.Context {
	if e.TraceParent == "" {
		return ctx
	}
	carrier := tracing.MapCarrier{ExtTraceParent: e.TraceParent}
	if e.TraceState != "" {
		carrier[ExtTraceState] = e.TraceState
	}
	return tracing.ExtractTraceContext(ctx, carrier)
}

// Extensions returns the non-empty extension attributes.
func (e *CloudEvent) Extensions() map[string]string {
	ext := make(map[string]string, 4)
	for k, v := range map[string]string{
		ExtCorrelationID: e.CorrelationID,
		ExtActorID:       e.ActorID,
		ExtTraceParent:   e.TraceParent,
		ExtTraceState:    e.TraceState,
	} {
		if v != "" {
			ext[k] = v
		}
	}
	return ext
}
