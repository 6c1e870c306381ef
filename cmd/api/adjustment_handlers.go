package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/LocalHostDiluk/reinicializado/internal/application"
	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/pkg/api"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/middleware"
)

func createAdjustmentHandler(service *application.AdjustmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req createAdjustmentRequest
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		adjustment, err := service.CreateAdjustment(c.Request.Context(), application.CreateAdjustmentCommand{
			BatchID:        req.BatchID,
			AdjustmentType: req.AdjustmentType,
			Quantity:       req.Quantity,
			Reason:         req.Reason,
			ActorID:        actorID(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, adjustment)
	}
}

func listAdjustmentsHandler(service *application.AdjustmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pageReq, page, ok := parsePage(c, responder)
		if !ok {
			return
		}
		var params listAdjustmentsParams
		if appErr := api.BindQueryAndValidate(c, &params); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		result, err := service.ListAdjustments(c.Request.Context(), params.query(page))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(result.Items, pageReq, result.Total))
	}
}

// adjustmentSummaryResponse flattens the per-type summary into the fields
// clients display.
type adjustmentSummaryResponse struct {
	TotalAdjustments int                                                    `json:"total_adjustments"`
	ByType           map[domain.AdjustmentType]domain.AdjustmentTypeSummary `json:"by_type"`
	TotalWaste       decimal.Decimal                                        `json:"total_waste"`
}

func adjustmentSummaryHandler(service *application.AdjustmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var params listAdjustmentsParams
		if appErr := api.BindQueryAndValidate(c, &params); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		summary, err := service.Summary(c.Request.Context(), params.query(domain.Page{}))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		waste := decimal.Zero
		for t, s := range summary.ByType {
			if t.IsWaste() {
				waste = waste.Add(s.TotalQuantity)
			}
		}
		c.JSON(http.StatusOK, adjustmentSummaryResponse{
			TotalAdjustments: summary.TotalAdjustments,
			ByType:           summary.ByType,
			TotalWaste:       waste,
		})
	}
}

func batchAdjustmentsHandler(service *application.AdjustmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		adjustments, err := service.ListBatchAdjustments(c.Request.Context(), c.Param("batchId"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, orEmpty(adjustments))
	}
}

func getAdjustmentHandler(service *application.AdjustmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		adjustment, err := service.GetAdjustment(c.Request.Context(), c.Param("id"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, adjustment)
	}
}
