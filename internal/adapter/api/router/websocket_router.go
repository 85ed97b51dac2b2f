package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
)

// SetupWebSocketRouter mounts the notification stream. The handler
// authenticates from the query string, so no auth middleware is attached.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws/notifications", wsHandler.HandleNotifications)
}
