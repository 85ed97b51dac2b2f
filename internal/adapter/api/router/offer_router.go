package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/domain/entity"
)

func SetupOfferRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter) {
	offerHandler := handler.GetOfferHandler()

	offers := api.Group("/offers")
	offers.Use(authMiddleware.Authenticate)

	providerOnly := middleware.RequireUserType(entity.UserTypeProvider)

	offers.POST("", offerHandler.CreateOffer,
		providerOnly,
		middleware.RateLimit(limiter, "create_offer", middleware.ByUser),
	)
	offers.GET("/my", offerHandler.ListMyOffers, providerOnly)
	offers.GET("/:id", offerHandler.GetOffer)
	offers.PATCH("/:id/status", offerHandler.UpdateStatus)
	offers.PATCH("/:id/complete", offerHandler.CompleteOffer)
}
