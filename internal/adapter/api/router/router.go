package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
)

// Setup mounts every route. Handlers must already be built by handler.Setup.
func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware, limiter middleware.Limiter, wsHandler *handler.WebSocketHandler) {
	api := e.Group("/api")

	SetupAuthRouter(api, limiter)
	SetupUserRouter(api, authMiddleware, adminMiddleware)
	SetupCategoryRouter(api, authMiddleware, adminMiddleware)
	SetupDemandRouter(api, authMiddleware)
	SetupOfferRouter(api, authMiddleware, limiter)
	SetupReviewRouter(api, authMiddleware)
	SetupNotificationRouter(api, authMiddleware)
	SetupCharityRouter(api, authMiddleware, adminMiddleware)
	SetupAdminRouter(api, authMiddleware, adminMiddleware)

	SetupHealthRouter(e)
	SetupWebSocketRouter(e, wsHandler)
}
