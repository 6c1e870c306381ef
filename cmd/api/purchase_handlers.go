package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LocalHostDiluk/reinicializado/internal/application"
	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	"github.com/LocalHostDiluk/reinicializado/pkg/api"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/LocalHostDiluk/reinicializado/pkg/middleware"
)

func createPurchaseHandler(service *application.PurchaseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req createPurchaseRequest
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		purchase, err := service.CreatePurchase(c.Request.Context(), req.command(actorID(c)))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, purchase)
	}
}

func listPurchasesHandler(service *application.PurchaseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pageReq, page, ok := parsePage(c, responder)
		if !ok {
			return
		}
		var params listPurchasesParams
		if appErr := api.BindQueryAndValidate(c, &params); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		result, err := service.ListPurchases(c.Request.Context(), params.query(page))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(result.Items, pageReq, result.Total))
	}
}

func purchaseStatsHandler(service *application.PurchaseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var params listPurchasesParams
		if appErr := api.BindQueryAndValidate(c, &params); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		stats, err := service.Stats(c.Request.Context(), params.query(domain.Page{}))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

func getPurchaseHandler(service *application.PurchaseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		purchase, err := service.GetPurchase(c.Request.Context(), c.Param("id"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, purchase)
	}
}

func updatePurchaseHandler(service *application.PurchaseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req updatePurchaseRequest
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		purchase, err := service.UpdatePurchase(c.Request.Context(), application.UpdatePurchaseCommand{
			PurchaseID:    c.Param("id"),
			InvoiceNumber: req.InvoiceNumber,
			Notes:         req.Notes,
			ActorID:       actorID(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, purchase)
	}
}

func cancelPurchaseHandler(service *application.PurchaseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		purchase, err := service.CancelPurchase(c.Request.Context(), c.Param("id"), actorID(c))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, purchase)
	}
}

func markReceivedHandler(service *application.PurchaseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		result, err := service.MarkReceived(c.Request.Context(), c.Param("id"), actorID(c))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"purchase":        result.Purchase,
			"batches_created": orEmpty(result.Batches),
		})
	}
}

func createReturnHandler(service *application.ReturnService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req createReturnRequest
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		ret, err := service.CreateReturn(c.Request.Context(), req.command(actorID(c)))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, ret)
	}
}

func listReturnsHandler(service *application.ReturnService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pageReq, page, ok := parsePage(c, responder)
		if !ok {
			return
		}
		var params listReturnsParams
		if appErr := api.BindQueryAndValidate(c, &params); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		result, err := service.ListReturns(c.Request.Context(), params.query(page))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(result.Items, pageReq, result.Total))
	}
}

func getReturnHandler(service *application.ReturnService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		ret, err := service.GetReturn(c.Request.Context(), c.Param("id"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, ret)
	}
}

func purchaseReturnsHandler(service *application.ReturnService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		returns, err := service.ListPurchaseReturns(c.Request.Context(), c.Param("id"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, orEmpty(returns))
	}
}
