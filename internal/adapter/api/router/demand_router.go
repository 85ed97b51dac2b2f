package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/domain/entity"
)

func SetupDemandRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	demandHandler := handler.GetDemandHandler()
	offerHandler := handler.GetOfferHandler()

	demands := api.Group("/demands")
	demands.Use(authMiddleware.Authenticate)

	demands.GET("", demandHandler.ListDemands)
	demands.GET("/:id", demandHandler.GetDemand)
	demands.GET("/:id/offers", offerHandler.ListForDemand)
	demands.DELETE("/:id", demandHandler.DeleteDemand)

	receiverOnly := middleware.RequireUserType(entity.UserTypeReceiver)
	demands.POST("", demandHandler.CreateDemand, receiverOnly)
	demands.PATCH("/:id/cancel", demandHandler.CancelDemand, receiverOnly)
}
