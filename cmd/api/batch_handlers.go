package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LocalHostDiluk/reinicializado/internal/application"
	"github.com/LocalHostDiluk/reinicializado/pkg/api"
	"github.com/LocalHostDiluk/reinicializado/pkg/errors"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/middleware"
)

func createBatchHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req createBatchRequest
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		batch, err := service.CreateBatch(c.Request.Context(), req.command(actorID(c)))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, batch)
	}
}

func listBatchesHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pageReq, page, ok := parsePage(c, responder)
		if !ok {
			return
		}
		var params listBatchesParams
		if appErr := api.BindQueryAndValidate(c, &params); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		result, err := service.ListBatches(c.Request.Context(), application.ListBatchesQuery{
			ProductID:      params.ProductID,
			SupplierID:     params.SupplierID,
			HasStock:       params.HasStock,
			ExpiringInDays: params.ExpiringInDays,
			Page:           page,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(result.Items, pageReq, result.Total))
	}
}

func getBatchHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		batch, err := service.GetBatch(c.Request.Context(), c.Param("id"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, batch)
	}
}

func updateBatchHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req updateBatchRequest
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		batch, err := service.UpdateBatch(c.Request.Context(), application.UpdateBatchCommand{
			BatchID:        c.Param("id"),
			BatchNumber:    req.BatchNumber,
			ExpirationDate: req.ExpirationDate,
			Notes:          req.Notes,
			ActorID:        actorID(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, batch)
	}
}

func productStockHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		stock, err := service.ProductStock(c.Request.Context(), c.Param("productId"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, stock)
	}
}

func lowStockHandler(service *application.AlertService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		alerts, err := service.LowStock(c.Request.Context())
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, alerts)
	}
}

func expiringHandler(service *application.AlertService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		days := 0
		if raw := c.Query("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				responder.RespondWithAppError(errors.ErrInvalidArgument("days must be a non-negative integer"))
				return
			}
			days = n
		}

		alerts, err := service.Expiring(c.Request.Context(), days)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, alerts)
	}
}
