package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/middleware"
	ws "servicemarket/internal/infrastructure/websocket"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
	"servicemarket/pkg/response"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	upgrader       gorillaws.Upgrader
}

// NewWebSocketHandler accepts any origin when allowedOrigins is empty.
func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(allowed) == 0 || allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// HandleNotifications authenticates with the token query parameter, since
// browsers cannot set headers on a websocket handshake.
func (h *WebSocketHandler) HandleNotifications(c echo.Context) error {
	raw := c.QueryParam("token")
	if raw == "" {
		return response.Error(c, errors.Unauthorized("token query parameter is required", nil))
	}
	user, err := h.authMiddleware.UserFromToken(c.Request().Context(), raw)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("websocket upgrade failed for %s: %v", user.ID, err)
		return nil
	}

	client := ws.NewClient(user.ID, conn)
	h.wsManager.Register <- client

	go client.WritePump()
	go client.ReadPump(h.wsManager)
	return nil
}
