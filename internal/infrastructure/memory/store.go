// Package memory holds in-process implementations of the domain ports for
// the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

type state struct {
	batches     map[string]*domain.InventoryBatch
	adjustments map[string]*domain.InventoryAdjustment
	sales       map[string]*domain.Sale
	movements   []*domain.SaleInventoryMovement
	purchases   map[string]*domain.Purchase
	returns     map[string]*domain.PurchaseReturn
	events      []domain.DomainEvent
}

func newState() *state {
	return &state{
		batches:     make(map[string]*domain.InventoryBatch),
		adjustments: make(map[string]*domain.InventoryAdjustment),
		sales:       make(map[string]*domain.Sale),
		purchases:   make(map[string]*domain.Purchase),
		returns:     make(map[string]*domain.PurchaseReturn),
	}
}

// snapshot copies the maps. Stored values are replaced, never mutated, so
// the copy is enough to roll back.
func (s *state) snapshot() *state {
	cp := newState()
	for k, v := range s.batches {
		cp.batches[k] = v
	}
	for k, v := range s.adjustments {
		cp.adjustments[k] = v
	}
	for k, v := range s.sales {
		cp.sales[k] = v
	}
	for k, v := range s.purchases {
		cp.purchases[k] = v
	}
	for k, v := range s.returns {
		cp.returns[k] = v
	}
	cp.movements = append([]*domain.SaleInventoryMovement(nil), s.movements...)
	cp.events = append([]domain.DomainEvent(nil), s.events...)
	return cp
}

// Store keeps every aggregate in maps. Units run one at a time and are
// rolled back on error.
type Store struct {
	unitMu sync.Mutex
	mu     sync.RWMutex
	data   *state
	faults *Faults
}

var _ domain.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	return &Store{data: newState(), faults: buildOptions(opts).faults}
}

// Run executes fn; every write made through tx is undone when fn fails.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	s.unitMu.Lock()
	defer s.unitMu.Unlock()

	s.mu.RLock()
	saved := s.data.snapshot()
	s.mu.RUnlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.data = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Batches() domain.BatchRepository          { return batchRepo{s} }
func (s *Store) Adjustments() domain.AdjustmentRepository { return adjustmentRepo{s} }
func (s *Store) Sales() domain.SaleRepository             { return saleRepo{s} }
func (s *Store) Purchases() domain.PurchaseRepository     { return purchaseRepo{s} }
func (s *Store) Returns() domain.ReturnRepository         { return returnRepo{s} }
func (s *Store) Events() domain.EventRecorder             { return eventRecorder{s} }

// RecordedEvents returns the events recorded so far.
func (s *Store) RecordedEvents() []domain.DomainEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DomainEvent(nil), s.data.events...)
}

// Movements returns every sale inventory movement.
func (s *Store) Movements() []*domain.SaleInventoryMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.SaleInventoryMovement(nil), s.data.movements...)
}

// MovementsByBatch returns the sale movements that drew from a batch.
func (s *Store) MovementsByBatch(_ context.Context, batchID string) ([]*domain.SaleInventoryMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.SaleInventoryMovement
	for _, m := range s.data.movements {
		if m.BatchID == batchID {
			out = append(out, m)
		}
	}
	return out, nil
}

// AllBatches returns every batch, oldest entry first.
func (s *Store) AllBatches() []*domain.InventoryBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.InventoryBatch, 0, len(s.data.batches))
	for _, b := range s.data.batches {
		out = append(out, cloneBatch(b))
	}
	sortBatchesFIFO(out)
	return out
}

func cloneBatch(b *domain.InventoryBatch) *domain.InventoryBatch {
	cp := *b
	return &cp
}

func clonePurchase(p *domain.Purchase) *domain.Purchase {
	cp := *p
	cp.Items = append([]domain.PurchaseItem(nil), p.Items...)
	return &cp
}

func cloneSale(sale *domain.Sale) *domain.Sale {
	cp := *sale
	cp.Items = append([]domain.SaleItem(nil), sale.Items...)
	return &cp
}

func cloneReturn(r *domain.PurchaseReturn) *domain.PurchaseReturn {
	cp := *r
	cp.Items = append([]domain.PurchaseReturnItem(nil), r.Items...)
	return &cp
}

func sortBatchesFIFO(batches []*domain.InventoryBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].EntryDate.Equal(batches[j].EntryDate) {
			return batches[i].EntryDate.Before(batches[j].EntryDate)
		}
		return batches[i].ID < batches[j].ID
	})
}

func paginate[T any](items []T, page domain.Page) []T {
	if page.Size <= 0 {
		return items
	}
	start := page.Offset()
	if start >= int64(len(items)) {
		return []T{}
	}
	end := start + page.Size
	if end > int64(len(items)) {
		end = int64(len(items))
	}
	return items[start:end]
}

type batchRepo struct{ s *Store }

func (r batchRepo) Get(_ context.Context, id string) (*domain.InventoryBatch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.data.batches[id]
	if !ok {
		return nil, domain.NotFoundf("batch %s not found", id)
	}
	return cloneBatch(b), nil
}

func (r batchRepo) Insert(_ context.Context, batch *domain.InventoryBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.data.batches[batch.ID]; exists {
		return domain.Conflictf("batch %s already exists", batch.ID)
	}
	r.s.data.batches[batch.ID] = cloneBatch(batch)
	return nil
}

func (r batchRepo) InsertMany(ctx context.Context, batches []*domain.InventoryBatch) error {
	for _, b := range batches {
		if err := r.Insert(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (r batchRepo) SetQuantity(_ context.Context, id string, expected, newQty decimal.Decimal, updatedAt time.Time) error {
	if hook := r.s.faults.BeforeSetQuantity; hook != nil {
		hook(id)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.batches[id]
	if !ok {
		return domain.NotFoundf("batch %s not found", id)
	}
	if !b.CurrentQuantity.Equal(expected) {
		return domain.Conflictf("batch %s changed concurrently", id)
	}
	cp := cloneBatch(b)
	cp.CurrentQuantity = newQty
	cp.UpdatedAt = updatedAt
	r.s.data.batches[id] = cp
	return nil
}

func (r batchRepo) UpdateMetadata(_ context.Context, batch *domain.InventoryBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.batches[batch.ID]
	if !ok {
		return domain.NotFoundf("batch %s not found", batch.ID)
	}
	cp := cloneBatch(b)
	cp.BatchNumber = batch.BatchNumber
	cp.ExpirationDate = batch.ExpirationDate
	cp.Notes = batch.Notes
	cp.UpdatedAt = batch.UpdatedAt
	r.s.data.batches[batch.ID] = cp
	return nil
}

func (r batchRepo) all() []*domain.InventoryBatch {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.InventoryBatch, 0, len(r.s.data.batches))
	for _, b := range r.s.data.batches {
		out = append(out, cloneBatch(b))
	}
	sortBatchesFIFO(out)
	return out
}

func (r batchRepo) List(_ context.Context, f domain.BatchFilter, page domain.Page) ([]*domain.InventoryBatch, int64, error) {
	var matched []*domain.InventoryBatch
	for _, b := range r.all() {
		if f.ProductID != "" && b.ProductID != f.ProductID {
			continue
		}
		if f.SupplierID != "" && b.SupplierID != f.SupplierID {
			continue
		}
		if f.HasStock != nil && b.HasStock() != *f.HasStock {
			continue
		}
		if f.ExpiringAfter != nil || f.ExpiringBefore != nil {
			if b.ExpirationDate == nil || !(domain.DateRange{From: f.ExpiringAfter, To: f.ExpiringBefore}).Contains(*b.ExpirationDate) {
				continue
			}
		}
		matched = append(matched, b)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].EntryDate.After(matched[j].EntryDate)
	})
	return paginate(matched, page), int64(len(matched)), nil
}

func (r batchRepo) ListAvailable(_ context.Context, productID string) ([]*domain.InventoryBatch, error) {
	var out []*domain.InventoryBatch
	for _, b := range r.all() {
		if b.ProductID == productID && b.HasStock() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r batchRepo) ListExpiring(_ context.Context, until time.Time) ([]*domain.InventoryBatch, error) {
	var out []*domain.InventoryBatch
	for _, b := range r.all() {
		if b.HasStock() && b.ExpirationDate != nil && !b.ExpirationDate.After(until) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r batchRepo) StockTotals(_ context.Context) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, b := range r.all() {
		if b.HasStock() {
			totals[b.ProductID] = totals[b.ProductID].Add(b.CurrentQuantity)
		}
	}
	return totals, nil
}

type adjustmentRepo struct{ s *Store }

func (r adjustmentRepo) Insert(_ context.Context, adj *domain.InventoryAdjustment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *adj
	r.s.data.adjustments[adj.ID] = &cp
	return nil
}

func (r adjustmentRepo) Get(_ context.Context, id string) (*domain.InventoryAdjustment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.data.adjustments[id]
	if !ok {
		return nil, domain.NotFoundf("adjustment %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (r adjustmentRepo) ListAll(_ context.Context, f domain.AdjustmentFilter) ([]*domain.InventoryAdjustment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.InventoryAdjustment
	for _, a := range r.s.data.adjustments {
		if f.BatchID != "" && a.BatchID != f.BatchID {
			continue
		}
		if f.ProductID != "" && a.ProductID != f.ProductID {
			continue
		}
		if f.AdjustmentType != "" && a.AdjustmentType != f.AdjustmentType {
			continue
		}
		if !f.Period.Contains(a.CreatedAt) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r adjustmentRepo) List(ctx context.Context, f domain.AdjustmentFilter, page domain.Page) ([]*domain.InventoryAdjustment, int64, error) {
	all, _ := r.ListAll(ctx, f)
	return paginate(all, page), int64(len(all)), nil
}

func (r adjustmentRepo) ListByBatch(ctx context.Context, batchID string) ([]*domain.InventoryAdjustment, error) {
	return r.ListAll(ctx, domain.AdjustmentFilter{BatchID: batchID})
}

type saleRepo struct{ s *Store }

func (r saleRepo) Insert(_ context.Context, sale *domain.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.sales[sale.ID] = cloneSale(sale)
	return nil
}

func (r saleRepo) InsertMovements(_ context.Context, movements []*domain.SaleInventoryMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range movements {
		cp := *m
		r.s.data.movements = append(r.s.data.movements, &cp)
	}
	return nil
}

func (r saleRepo) Get(_ context.Context, id string) (*domain.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sale, ok := r.s.data.sales[id]
	if !ok {
		return nil, domain.NotFoundf("sale %s not found", id)
	}
	return cloneSale(sale), nil
}

func (r saleRepo) ListAll(_ context.Context, f domain.SaleFilter) ([]*domain.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Sale
	for _, sale := range r.s.data.sales {
		if f.SoldBy != "" && sale.SoldBy != f.SoldBy {
			continue
		}
		if f.PaymentMethod != "" && sale.PaymentMethod != f.PaymentMethod {
			continue
		}
		if !f.Period.Contains(sale.CreatedAt) {
			continue
		}
		out = append(out, cloneSale(sale))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].SaleNumber > out[j].SaleNumber
	})
	return out, nil
}

func (r saleRepo) List(ctx context.Context, f domain.SaleFilter, page domain.Page) ([]*domain.Sale, int64, error) {
	all, _ := r.ListAll(ctx, f)
	return paginate(all, page), int64(len(all)), nil
}

type purchaseRepo struct{ s *Store }

func (r purchaseRepo) Insert(_ context.Context, p *domain.Purchase) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.purchases[p.ID] = clonePurchase(p)
	return nil
}

func (r purchaseRepo) Get(_ context.Context, id string) (*domain.Purchase, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.data.purchases[id]
	if !ok {
		return nil, domain.NotFoundf("purchase %s not found", id)
	}
	return clonePurchase(p), nil
}

func (r purchaseRepo) Update(_ context.Context, p *domain.Purchase, expected domain.PurchaseStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.data.purchases[p.ID]
	if !ok {
		return domain.NotFoundf("purchase %s not found", p.ID)
	}
	if stored.Status != expected {
		return domain.Conflictf("purchase %s changed concurrently", p.ID)
	}
	r.s.data.purchases[p.ID] = clonePurchase(p)
	return nil
}

func (r purchaseRepo) ListAll(_ context.Context, f domain.PurchaseFilter) ([]*domain.Purchase, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Purchase
	for _, p := range r.s.data.purchases {
		if f.SupplierID != "" && p.SupplierID != f.SupplierID {
			continue
		}
		if f.PurchaseType != "" && p.PurchaseType != f.PurchaseType {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if !f.Period.Contains(p.PurchaseDate) {
			continue
		}
		out = append(out, clonePurchase(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Equal(out[j].PurchaseDate) {
			return out[i].PurchaseDate.After(out[j].PurchaseDate)
		}
		return out[i].PurchaseNumber > out[j].PurchaseNumber
	})
	return out, nil
}

func (r purchaseRepo) List(ctx context.Context, f domain.PurchaseFilter, page domain.Page) ([]*domain.Purchase, int64, error) {
	all, _ := r.ListAll(ctx, f)
	return paginate(all, page), int64(len(all)), nil
}

type returnRepo struct{ s *Store }

func (r returnRepo) Insert(_ context.Context, ret *domain.PurchaseReturn) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.returns[ret.ID] = cloneReturn(ret)
	return nil
}

func (r returnRepo) Get(_ context.Context, id string) (*domain.PurchaseReturn, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ret, ok := r.s.data.returns[id]
	if !ok {
		return nil, domain.NotFoundf("purchase return %s not found", id)
	}
	return cloneReturn(ret), nil
}

func (r returnRepo) listAll(f domain.ReturnFilter) []*domain.PurchaseReturn {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.PurchaseReturn
	for _, ret := range r.s.data.returns {
		if f.PurchaseID != "" && ret.PurchaseID != f.PurchaseID {
			continue
		}
		if f.SupplierID != "" && ret.SupplierID != f.SupplierID {
			continue
		}
		if f.ReturnType != "" && ret.ReturnType != f.ReturnType {
			continue
		}
		if !f.Period.Contains(ret.ReturnDate) {
			continue
		}
		out = append(out, cloneReturn(ret))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ReturnDate.Equal(out[j].ReturnDate) {
			return out[i].ReturnDate.After(out[j].ReturnDate)
		}
		return out[i].ReturnNumber > out[j].ReturnNumber
	})
	return out
}

func (r returnRepo) List(_ context.Context, f domain.ReturnFilter, page domain.Page) ([]*domain.PurchaseReturn, int64, error) {
	all := r.listAll(f)
	return paginate(all, page), int64(len(all)), nil
}

func (r returnRepo) ListByPurchase(_ context.Context, purchaseID string) ([]*domain.PurchaseReturn, error) {
	return r.listAll(domain.ReturnFilter{PurchaseID: purchaseID}), nil
}

type eventRecorder struct{ s *Store }

func (r eventRecorder) Record(_ context.Context, events ...domain.DomainEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.faults.RecordErr; err != nil {
		r.s.faults.RecordErr = nil
		return err
	}
	r.s.data.events = append(r.s.data.events, events...)
	return nil
}
