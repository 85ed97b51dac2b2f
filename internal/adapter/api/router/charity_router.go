package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
)

func SetupCharityRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	charityHandler := handler.GetCharityHandler()

	// Public routes
	charities := api.Group("/charities")
	charities.GET("", charityHandler.ListCharities)
	charities.GET("/:id", charityHandler.GetCharity)

	admin := api.Group("/admin/charities")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("", charityHandler.AdminListCharities)
	admin.POST("", charityHandler.CreateCharity)
	admin.PATCH("/:id", charityHandler.UpdateCharity)
	admin.DELETE("/:id", charityHandler.DeleteCharity)
	admin.POST("/:id/image", charityHandler.UploadImage)
}
