package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
)

func SetupReviewRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	reviewHandler := handler.GetReviewHandler()

	reviews := api.Group("/reviews")
	reviews.Use(authMiddleware.Authenticate)

	reviews.POST("", reviewHandler.CreateReview)
	reviews.DELETE("/:id", reviewHandler.DeleteReview)
}
