package mongodb

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/metrics"
	"go.mongodb.org/mongo-driver/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// commands that are not worth a span or a metric sample
var ignoredCommands = map[string]struct{}{
	"hello":        {},
	"isMaster":     {},
	"ismaster":     {},
	"ping":         {},
	"saslStart":    {},
	"saslContinue": {},
	"endSessions":  {},
}

type inflightCommand struct {
	ctx        context.Context
	span       trace.Span
	collection string
	started    time.Time
}

// commandInstrumentation records a span, a metric sample and a debug log
// line for every command the driver sends.
type commandInstrumentation struct {
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
	inflight sync.Map // request id -> *inflightCommand
}

// NewCommandMonitor returns a driver command monitor feeding metrics, tracing
// and logging. Either m or logger may be nil.
func NewCommandMonitor(m *metrics.Metrics, logger *logging.Logger) *event.CommandMonitor {
	ci := &commandInstrumentation{
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("mongodb"),
	}
	return &event.CommandMonitor{
		Started:   ci.started,
		Succeeded: ci.succeeded,
		Failed:    ci.failed,
	}
}

func (ci *commandInstrumentation) started(ctx context.Context, evt *event.CommandStartedEvent) {
	if _, skip := ignoredCommands[evt.CommandName]; skip {
		return
	}

	collection, _ := evt.Command.Lookup(evt.CommandName).StringValueOK()
	spanCtx, span := ci.tracer.Start(ctx, "mongodb."+evt.CommandName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(evt.DatabaseName),
			semconv.DBOperationKey.String(evt.CommandName),
			attribute.String("db.collection", collection),
		),
	)

	ci.inflight.Store(evt.RequestID, &inflightCommand{
		ctx:        spanCtx,
		span:       span,
		collection: collection,
		started:    time.Now(),
	})
}

func (ci *commandInstrumentation) succeeded(_ context.Context, evt *event.CommandSucceededEvent) {
	ci.finish(evt.RequestID, evt.CommandName, nil)
}

func (ci *commandInstrumentation) failed(_ context.Context, evt *event.CommandFailedEvent) {
	ci.finish(evt.RequestID, evt.CommandName, errors.New(evt.Failure))
}

func (ci *commandInstrumentation) finish(requestID int64, commandName string, err error) {
	value, ok := ci.inflight.LoadAndDelete(requestID)
	if !ok {
		return
	}
	cmd := value.(*inflightCommand)
	duration := time.Since(cmd.started)

	if err != nil {
		cmd.span.RecordError(err)
		cmd.span.SetStatus(codes.Error, err.Error())
	} else {
		cmd.span.SetStatus(codes.Ok, "")
	}
	cmd.span.End()

	if ci.metrics != nil {
		ci.metrics.RecordMongoDBOperation(cmd.collection, commandName, err == nil, duration)
	}
	if ci.logger != nil {
		ci.logger.DatabaseQuery(cmd.ctx, cmd.collection, commandName, duration, err)
	}
}
