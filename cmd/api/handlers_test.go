package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	retailapi "github.com/LocalHostDiluk/reinicializado/api"
	"github.com/LocalHostDiluk/reinicializado/internal/application"
	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/internal/infrastructure/memory"
	"github.com/LocalHostDiluk/reinicializado/pkg/contracts/openapi"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/middleware"
)

var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T, opts routeOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := memory.NewCatalog()
	catalog.AddProduct(domain.Product{ID: "p1", Name: "Soap", SaleType: domain.SaleByPiece, IsActive: true})
	catalog.AddProduct(domain.Product{ID: "p2", Name: "Rice", SaleType: domain.SaleByWeight, IsActive: true})
	catalog.AddSupplier(domain.Supplier{ID: "s1", Name: "Acme"})

	store := memory.NewStore()
	n := 0
	logger := logging.NewNop()
	svc := newServices(application.Deps{
		Store:     store,
		Products:  catalog,
		Suppliers: catalog.Suppliers(),
		Sequences: memory.NewSequences(),
		Logger:    logger,
		Clock:     func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		},
	})

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig("retail-api-test", logger.Logger))
	registerRoutes(router, svc, opts, logger)
	return &testServer{router: router, store: store}
}

type caller struct {
	userID string
	role   string
}

var (
	manager = caller{userID: "u-manager", role: "manager"}
	cashier = caller{userID: "u-cashier", role: "cajero"}
	nobody  = caller{}
)

func (s *testServer) do(t *testing.T, who caller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who.userID != "" {
		req.Header.Set(middleware.HeaderUserID, who.userID)
		req.Header.Set(middleware.HeaderUserRole, who.role)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func (s *testServer) createBatch(t *testing.T, productID, qty string) domain.InventoryBatch {
	t.Helper()
	w := s.do(t, manager, http.MethodPost, "/api/v1/inventory/batches", gin.H{
		"product_id":       productID,
		"supplier_id":      "s1",
		"initial_quantity": qty,
		"purchase_price":   1.25,
		"entry_date":       "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.InventoryBatch](t, w)
}

func TestActorHeaders(t *testing.T) {
	s := newTestServer(t, routeOptions{})

	tests := []struct {
		name   string
		who    caller
		method string
		path   string
		body   any
		want   int
	}{
		{name: "no actor", who: nobody, method: http.MethodGet, path: "/api/v1/sales", want: http.StatusUnauthorized},
		{name: "unknown role", who: caller{userID: "u1", role: "owner"}, method: http.MethodGet, path: "/api/v1/sales", want: http.StatusUnauthorized},
		{name: "cashier creates batch", who: cashier, method: http.MethodPost, path: "/api/v1/inventory/batches", body: gin.H{}, want: http.StatusForbidden},
		{name: "cashier cancels purchase", who: cashier, method: http.MethodDelete, path: "/api/v1/purchases/x", want: http.StatusForbidden},
		{name: "cashier lists sales", who: cashier, method: http.MethodGet, path: "/api/v1/sales", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.who, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestBatchThenStockThenSale(t *testing.T) {
	s := newTestServer(t, routeOptions{})

	w := s.do(t, manager, http.MethodGet, "/api/v1/inventory/batches/stock/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[domain.ProductStock](t, w).TotalQuantity.IsZero())

	w = s.do(t, cashier, http.MethodPost, "/api/v1/sales", gin.H{
		"items":          []gin.H{{"product_id": "p1", "quantity": 1, "unit_price": 3}},
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[errorBody](t, w).Kind)

	batch := s.createBatch(t, "p1", "10")
	assert.Equal(t, "u-manager", batch.CreatedBy)

	w = s.do(t, manager, http.MethodGet, "/api/v1/inventory/batches/stock/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stock := decode[domain.ProductStock](t, w)
	assert.True(t, stock.TotalQuantity.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 1, stock.BatchesCount)

	w = s.do(t, cashier, http.MethodPost, "/api/v1/sales", gin.H{
		"items":          []gin.H{{"product_id": "p1", "quantity": "10", "unit_price": "3"}},
		"payment_method": "mixed",
		"payment_breakdown": gin.H{
			"cash": 20,
			"card": 10,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sale := decode[domain.Sale](t, w)
	assert.Equal(t, "VENTA-20250310-0001", sale.SaleNumber)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "u-cashier", sale.SoldBy)
	require.Len(t, sale.Items, 1)
	require.Len(t, sale.Items[0].BatchesUsed, 1)
	assert.Equal(t, batch.ID, sale.Items[0].BatchesUsed[0].BatchID)
	assert.True(t, sale.Items[0].BatchesUsed[0].Quantity.Equal(decimal.NewFromInt(10)))

	w = s.do(t, cashier, http.MethodPost, "/api/v1/sales", gin.H{
		"items":          []gin.H{{"product_id": "p1", "quantity": 1, "unit_price": 3}},
		"payment_method": "card",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, manager, http.MethodGet, "/api/v1/sales/"+sale.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, manager, http.MethodGet, "/api/v1/sales?payment_method=mixed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data       []domain.Sale `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, int64(1), page.Pagination.Total)
}

func TestSaleRequestValidation(t *testing.T) {
	s := newTestServer(t, routeOptions{})

	w := s.do(t, cashier, http.MethodPost, "/api/v1/sales", gin.H{
		"items":          []gin.H{{"product_id": "p1", "quantity": 0, "unit_price": 3}},
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "INVALID_ARGUMENT", body.Kind)
	assert.Contains(t, body.Details, "items[0].quantity")

	w = s.do(t, cashier, http.MethodPost, "/api/v1/sales", gin.H{
		"items":          []gin.H{{"product_id": "p1", "quantity": 1, "unit_price": 3}},
		"payment_method": "mixed",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "mixed payment needs a breakdown")

	w = s.do(t, cashier, http.MethodGet, "/api/v1/sales?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustmentRoutes(t *testing.T) {
	s := newTestServer(t, routeOptions{})
	batch := s.createBatch(t, "p2", "5")

	w := s.do(t, manager, http.MethodPost, "/api/v1/inventory/adjustments", gin.H{
		"batch_id":        batch.ID,
		"adjustment_type": "waste_damaged",
		"quantity":        2,
		"reason":          "torn bag",
	})
	require.Equal(t, http.StatusBadRequest, w.Code, "waste must be negative")

	w = s.do(t, manager, http.MethodPost, "/api/v1/inventory/adjustments", gin.H{
		"batch_id":        batch.ID,
		"adjustment_type": "waste_damaged",
		"quantity":        "-1.5",
		"reason":          "torn bag",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, manager, http.MethodGet, "/api/v1/inventory/batches/"+batch.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[domain.InventoryBatch](t, w).CurrentQuantity.Equal(decimal.RequireFromString("3.5")))

	w = s.do(t, manager, http.MethodGet, "/api/v1/inventory/adjustments/batch/"+batch.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.InventoryAdjustment](t, w), 1)

	w = s.do(t, manager, http.MethodGet, "/api/v1/inventory/adjustments/summary?end_date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[adjustmentSummaryResponse](t, w)
	assert.Equal(t, 1, summary.TotalAdjustments)
	assert.True(t, summary.TotalWaste.Equal(decimal.RequireFromString("1.5")))

	w = s.do(t, manager, http.MethodGet, "/api/v1/inventory/adjustments/batch/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPurchaseReceiptAndReturn(t *testing.T) {
	s := newTestServer(t, routeOptions{})

	w := s.do(t, manager, http.MethodPost, "/api/v1/purchases", gin.H{
		"supplier_id":   "s1",
		"purchase_type": "direct",
		"items": []gin.H{
			{"product_id": "p1", "quantity": 6, "unit_cost": 2, "expiration_date": "2025-06-01"},
		},
		"tax": 0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	purchase := decode[domain.Purchase](t, w)
	assert.Equal(t, "COMPRA-20250310-0001", purchase.PurchaseNumber)
	assert.Equal(t, domain.PurchasePending, purchase.Status)

	path := "/api/v1/purchases/" + purchase.ID
	w = s.do(t, manager, http.MethodPut, path, gin.H{"invoice_number": "F-100"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, manager, http.MethodPatch, path+"/mark-received", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var receipt struct {
		Purchase       domain.Purchase         `json:"purchase"`
		BatchesCreated []domain.InventoryBatch `json:"batches_created"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.Equal(t, domain.PurchaseReceived, receipt.Purchase.Status)
	require.Len(t, receipt.BatchesCreated, 1)

	w = s.do(t, manager, http.MethodPatch, path+"/mark-received", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", decode[errorBody](t, w).Kind)

	w = s.do(t, manager, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "received purchases cannot be cancelled")

	batchID := receipt.BatchesCreated[0].ID
	w = s.do(t, manager, http.MethodPost, "/api/v1/purchases/returns", gin.H{
		"purchase_id": purchase.ID,
		"return_type": "refund",
		"items":       []gin.H{{"batch_id": batchID, "quantity_returned": 7, "reason": "damaged"}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code, "cannot return more than the batch holds")

	w = s.do(t, manager, http.MethodPost, "/api/v1/purchases/returns", gin.H{
		"purchase_id": purchase.ID,
		"return_type": "refund",
		"items":       []gin.H{{"batch_id": batchID, "quantity_returned": 2, "reason": "damaged"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ret := decode[domain.PurchaseReturn](t, w)
	assert.Equal(t, "DEV-20250310-0001", ret.ReturnNumber)
	assert.True(t, ret.TotalRefund.Equal(decimal.NewFromInt(4)))

	w = s.do(t, manager, http.MethodGet, path+"/returns", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.PurchaseReturn](t, w), 1)

	w = s.do(t, cashier, http.MethodGet, "/api/v1/purchases/returns/"+ret.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, manager, http.MethodGet, "/api/v1/inventory/batches/"+batchID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[domain.InventoryBatch](t, w).CurrentQuantity.Equal(decimal.NewFromInt(4)))
}

func TestExpiringAlertsDaysParameter(t *testing.T) {
	s := newTestServer(t, routeOptions{})

	w := s.do(t, manager, http.MethodGet, "/api/v1/inventory/batches/alerts/expiring?days=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, manager, http.MethodGet, "/api/v1/inventory/batches/alerts/expiring?days=30", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestOpenAPIValidationRejectsBeforeHandlers(t *testing.T) {
	v, err := openapi.NewValidatorFromBytes(retailapi.OpenAPI)
	require.NoError(t, err)
	s := newTestServer(t, routeOptions{OpenAPI: v})

	w := s.do(t, cashier, http.MethodPost, "/api/v1/sales", gin.H{
		"items":          []gin.H{{"product_id": "p1", "quantity": 1, "unit_price": 3}},
		"payment_method": "cheque",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decode[errorBody](t, w).Kind)

	batch := s.createBatch(t, "p1", "3")
	w = s.do(t, manager, http.MethodGet, "/api/v1/inventory/batches/"+batch.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResponsesMatchOpenAPIDocument(t *testing.T) {
	v, err := openapi.NewValidatorFromBytes(retailapi.OpenAPI)
	require.NoError(t, err)
	s := newTestServer(t, routeOptions{})

	check := func(method, path string, w *httptest.ResponseRecorder) {
		t.Helper()
		req := httptest.NewRequest(method, path, nil)
		assert.NoError(t, v.ValidateResponse(req.Context(), req, w.Code, w.Header(), w.Body.Bytes()), "%s %s: %s", method, path, w.Body.String())
	}

	batch := s.createBatch(t, "p2", "2.5")
	check(http.MethodGet, "/api/v1/inventory/batches/"+batch.ID, s.do(t, cashier, http.MethodGet, "/api/v1/inventory/batches/"+batch.ID, nil))
	check(http.MethodGet, "/api/v1/inventory/batches/stock/p2", s.do(t, cashier, http.MethodGet, "/api/v1/inventory/batches/stock/p2", nil))

	w := s.do(t, cashier, http.MethodPost, "/api/v1/sales", gin.H{
		"items":          []gin.H{{"product_id": "p2", "quantity": "1.5", "unit_price": 4}},
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	check(http.MethodPost, "/api/v1/sales", w)

	w = s.do(t, cashier, http.MethodGet, "/api/v1/inventory/batches/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	check(http.MethodGet, "/api/v1/inventory/batches/missing", w)
}
