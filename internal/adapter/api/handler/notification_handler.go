package handler

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/usecase"
	"servicemarket/pkg/response"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	unread, err := queryBool(c, "unread")
	if err != nil {
		return response.Error(c, err)
	}
	page, limit := pagination(c)

	items, total, err := h.notificationUseCase.List(c.Request().Context(), actor(c).UserID, unread != nil && *unread, page, limit)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, "notifications", items, total, page, limit)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	count, err := h.notificationUseCase.UnreadCount(c.Request().Context(), actor(c).UserID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int64{"count": count})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c, "id", "Notification")
	if err != nil {
		return response.Error(c, err)
	}
	n, err := h.notificationUseCase.MarkRead(c.Request().Context(), actor(c).UserID, id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, n)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	updated, err := h.notificationUseCase.MarkAllRead(c.Request().Context(), actor(c).UserID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int64{"updated": updated})
}
