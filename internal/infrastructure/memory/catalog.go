package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

// Catalog serves products and suppliers from maps.
type Catalog struct {
	mu        sync.RWMutex
	products  map[string]*domain.Product
	suppliers map[string]*domain.Supplier
}

var (
	_ domain.ProductCatalog  = (*Catalog)(nil)
	_ domain.SupplierCatalog = (*SupplierCatalog)(nil)
)

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		products:  make(map[string]*domain.Product),
		suppliers: make(map[string]*domain.Supplier),
	}
}

// AddProduct stores p, replacing any product with the same id.
func (c *Catalog) AddProduct(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = &p
}

// AddSupplier stores sup, replacing any supplier with the same id.
func (c *Catalog) AddSupplier(sup domain.Supplier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suppliers[sup.ID] = &sup
}

func (c *Catalog) Get(_ context.Context, id string) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, domain.NotFoundf("product %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (c *Catalog) ListActive(_ context.Context) ([]*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*domain.Product
	for _, p := range c.products {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Catalog) Names(_ context.Context, ids []string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			names[id] = p.Name
		}
	}
	return names, nil
}

// Suppliers returns the supplier side of the catalog.
func (c *Catalog) Suppliers() *SupplierCatalog {
	return &SupplierCatalog{c: c}
}

// SupplierCatalog is the supplier view of a Catalog.
type SupplierCatalog struct{ c *Catalog }

func (s *SupplierCatalog) Get(_ context.Context, id string) (*domain.Supplier, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	sup, ok := s.c.suppliers[id]
	if !ok {
		return nil, domain.NotFoundf("supplier %s not found", id)
	}
	cp := *sup
	return &cp, nil
}

// Sequences counts per prefix and day in memory.
type Sequences struct {
	mu       sync.Mutex
	counters map[string]int64
	faults   *Faults
}

var _ domain.SequenceAllocator = (*Sequences)(nil)

// NewSequences returns counters starting at zero.
func NewSequences(opts ...Option) *Sequences {
	return &Sequences{counters: make(map[string]int64), faults: buildOptions(opts).faults}
}

func (s *Sequences) Next(_ context.Context, prefix string, day time.Time) (int64, error) {
	if hook := s.faults.BeforeNextSequence; hook != nil {
		hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults.SequenceErr; err != nil {
		return 0, err
	}
	key := prefix + "-" + domain.SequenceDay(day)
	s.counters[key]++
	return s.counters[key], nil
}
