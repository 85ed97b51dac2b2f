package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
)

func SetupCategoryRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	categoryHandler := handler.GetCategoryHandler()

	// Public routes
	categories := api.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/tree", categoryHandler.GetTree)
	categories.GET("/:id", categoryHandler.GetCategory)

	admin := api.Group("/admin/categories")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("", categoryHandler.AdminListCategories)
	admin.POST("", categoryHandler.CreateCategory)
	admin.PATCH("/:id", categoryHandler.UpdateCategory)
	admin.DELETE("/:id", categoryHandler.DeleteCategory)
	admin.POST("/:id/image", categoryHandler.UploadImage)
}
