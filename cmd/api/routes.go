package main

import (
	"github.com/gin-gonic/gin"

	"github.com/LocalHostDiluk/reinicializado/internal/application"
	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/pkg/actor"
	"github.com/LocalHostDiluk/reinicializado/pkg/api"
	"github.com/LocalHostDiluk/reinicializado/pkg/contracts/openapi"
	"github.com/LocalHostDiluk/reinicializado/pkg/idempotency"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/middleware"
)

// services are the use cases exposed over HTTP.
type services struct {
	ledger      *application.LedgerService
	adjustments *application.AdjustmentService
	sales       *application.SaleService
	purchases   *application.PurchaseService
	returns     *application.ReturnService
	alerts      *application.AlertService
}

func newServices(deps application.Deps) *services {
	return &services{
		ledger:      application.NewLedgerService(deps),
		adjustments: application.NewAdjustmentService(deps),
		sales:       application.NewSaleService(deps),
		purchases:   application.NewPurchaseService(deps),
		returns:     application.NewReturnService(deps),
		alerts:      application.NewAlertService(deps),
	}
}

// routeOptions holds the optional request filters. Nil fields are skipped.
type routeOptions struct {
	Idempotency *idempotency.Config
	OpenAPI     *openapi.Validator
}

// mutation builds the chain of a state-changing route: role check, then
// idempotency, then the handler.
func (o routeOptions) mutation(h gin.HandlerFunc, roles ...actor.Role) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{middleware.RequireRole(roles...)}
	if o.Idempotency != nil {
		chain = append(chain, idempotency.Middleware(o.Idempotency))
	}
	return append(chain, h)
}

func registerRoutes(router *gin.Engine, svc *services, opts routeOptions, logger *logging.Logger) {
	manager := actor.RoleManager

	v1 := router.Group("/api/v1")
	v1.Use(middleware.ActorAuth())
	if opts.OpenAPI != nil {
		v1.Use(openapi.RequestValidator(opts.OpenAPI))
	}

	batches := v1.Group("/inventory/batches")
	{
		// Static routes first
		batches.POST("", opts.mutation(createBatchHandler(svc.ledger, logger), manager)...)
		batches.GET("", listBatchesHandler(svc.ledger, logger))
		batches.GET("/alerts/low-stock", lowStockHandler(svc.alerts, logger))
		batches.GET("/alerts/expiring", expiringHandler(svc.alerts, logger))
		batches.GET("/stock/:productId", productStockHandler(svc.ledger, logger))

		batches.GET("/:id", getBatchHandler(svc.ledger, logger))
		batches.PUT("/:id", opts.mutation(updateBatchHandler(svc.ledger, logger), manager)...)
	}

	adjustments := v1.Group("/inventory/adjustments")
	{
		adjustments.POST("", opts.mutation(createAdjustmentHandler(svc.adjustments, logger), manager)...)
		adjustments.GET("", listAdjustmentsHandler(svc.adjustments, logger))
		adjustments.GET("/summary", adjustmentSummaryHandler(svc.adjustments, logger))
		adjustments.GET("/batch/:batchId", batchAdjustmentsHandler(svc.adjustments, logger))
		adjustments.GET("/:id", getAdjustmentHandler(svc.adjustments, logger))
	}

	sales := v1.Group("/sales")
	{
		sales.POST("", opts.mutation(createSaleHandler(svc.sales, logger))...)
		sales.GET("", listSalesHandler(svc.sales, logger))
		sales.GET("/stats", salesStatsHandler(svc.sales, logger))
		sales.GET("/:id", getSaleHandler(svc.sales, logger))
	}

	purchases := v1.Group("/purchases")
	{
		purchases.POST("", opts.mutation(createPurchaseHandler(svc.purchases, logger), manager)...)
		purchases.GET("", listPurchasesHandler(svc.purchases, logger))
		purchases.GET("/stats", purchaseStatsHandler(svc.purchases, logger))

		purchases.POST("/returns", opts.mutation(createReturnHandler(svc.returns, logger), manager)...)
		purchases.GET("/returns", listReturnsHandler(svc.returns, logger))
		purchases.GET("/returns/:id", getReturnHandler(svc.returns, logger))

		purchases.GET("/:id", getPurchaseHandler(svc.purchases, logger))
		purchases.PUT("/:id", opts.mutation(updatePurchaseHandler(svc.purchases, logger), manager)...)
		purchases.DELETE("/:id", opts.mutation(cancelPurchaseHandler(svc.purchases, logger), manager)...)
		purchases.PATCH("/:id/mark-received", opts.mutation(markReceivedHandler(svc.purchases, logger), manager)...)
		purchases.GET("/:id/returns", purchaseReturnsHandler(svc.returns, logger))
	}
}

func actorID(c *gin.Context) string {
	a, _ := middleware.GetActor(c)
	return a.UserID
}

// parsePage reads page and limit, answering the request itself when they
// are invalid.
func parsePage(c *gin.Context, responder *middleware.ErrorResponder) (api.PageRequest, domain.Page, bool) {
	req, appErr := api.ParsePagination(c)
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return req, domain.Page{}, false
	}
	return req, domain.Page{Number: req.Page, Size: req.Limit}, true
}

// orEmpty keeps empty listings rendering as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
