package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
)

// SetupAdminRouter mounts moderation routes for users, demands, offers and
// broadcasts. Category and charity admin routes sit with their resources.
func SetupAdminRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	adminHandler := handler.GetAdminHandler()

	admin := api.Group("/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PATCH("/users/:id", adminHandler.UpdateUser)
	admin.POST("/users/:id/balance", adminHandler.CreditBalance)

	admin.GET("/demands", adminHandler.ListDemands)
	admin.PATCH("/demands/:id/approve", adminHandler.ApproveDemand)
	admin.PATCH("/demands/:id/reject", adminHandler.RejectDemand)

	admin.PATCH("/offers/:id", adminHandler.UpdateOffer)
	admin.DELETE("/offers/:id", adminHandler.DeleteOffer)

	admin.POST("/notifications/broadcast", adminHandler.Broadcast)
}
