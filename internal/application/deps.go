package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/metrics"
	"github.com/LocalHostDiluk/reinicializado/pkg/tracing"
)

// Deps carries what the services share. Zero-valued optional fields get
// defaults in the constructors.
type Deps struct {
	Store     domain.Store
	Products  domain.ProductCatalog
	Suppliers domain.SupplierCatalog
	Sequences domain.SequenceAllocator
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
	Clock     domain.Clock
	NewID     func() string
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(metrics.DefaultConfig(d.Logger.ServiceName()))
	}
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

// base holds the plumbing every service embeds.
type base struct {
	deps   Deps
	logger *logging.Logger
	tracer trace.Tracer
}

func newBase(deps Deps, component string) base {
	deps = deps.withDefaults()
	return base{
		deps:   deps,
		logger: deps.Logger.WithComponent(component),
		tracer: otel.Tracer("retail/application"),
	}
}

func (b *base) now() time.Time {
	return b.deps.Clock()
}

// traced runs op in a span named after the operation and maps its error.
func traced[T any](ctx context.Context, b *base, name string, op func(context.Context) (T, error)) (T, error) {
	result, err := tracing.TracedOperation(ctx, b.tracer, name, op)
	if err != nil {
		var zero T
		return zero, b.fail(ctx, name, err)
	}
	return result, nil
}

// nextNumber allocates a document number outside of any atomic unit.
func (b *base) nextNumber(ctx context.Context, prefix string) (string, error) {
	number, err := domain.NextNumber(ctx, b.deps.Sequences, prefix, b.now())
	b.deps.Metrics.RecordSequenceAllocation(prefix, err == nil)
	return number, err
}

// listResult builds a page of results.
func listResult[T any](items []T, total int64, page domain.Page) *ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return &ListResult[T]{Items: items, Total: total, Page: page}
}
