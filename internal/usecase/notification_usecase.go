package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

const eventNotification = "notification"

// NotificationDispatcher stores a notification and fans it out to the
// user's device and open websocket connections.
type NotificationDispatcher struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	push             PushSender
	realtime         RealtimePublisher
}

func NewNotificationDispatcher(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	push PushSender,
	realtime RealtimePublisher,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		push:             push,
		realtime:         realtime,
	}
}

func (d *NotificationDispatcher) Notify(ctx context.Context, userID string, kind entity.NotificationType, title, message string, data map[string]string) {
	n := &entity.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	}
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			logger.Warn("notification data for %s not encodable: %v", userID, err)
		}
		n.Data = raw
	}

	if err := d.notificationRepo.Create(ctx, n); err != nil {
		logger.Error("failed to store %s notification for %s: %v", kind, userID, err)
		return
	}

	if d.realtime != nil {
		if err := d.realtime.Publish(userID, eventNotification, n); err != nil {
			logger.Warn("failed to publish notification %s: %v", n.ID, err)
		}
	}

	if d.push == nil {
		return
	}
	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("push skipped, cannot load user %s: %v", userID, err)
		return
	}
	if user.FCMToken == "" {
		return
	}

	payload := map[string]string{"type": string(kind), "notificationId": n.ID}
	for k, v := range data {
		payload[k] = v
	}
	if err := d.push.SendToToken(ctx, user.FCMToken, title, message, payload); err != nil {
		logger.Warn("push for notification %s failed: %v", n.ID, err)
	}
}

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	push             PushSender
}

func NewNotificationUseCase(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	push PushSender,
) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		push:             push,
	}
}

func (uc *NotificationUseCase) List(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit, offset(page, limit))
}

func (uc *NotificationUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return uc.notificationRepo.CountUnread(ctx, userID)
}

func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, id string) (*entity.Notification, error) {
	n, err := uc.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, errors.Forbidden("You can only update your own notifications", nil)
	}
	if n.IsRead {
		return n, nil
	}
	if err := uc.notificationRepo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return uc.notificationRepo.MarkAllRead(ctx, userID)
}

type BroadcastInput struct {
	UserType *entity.UserType
	Title    string
	Message  string
}

const broadcastPageSize = 500

// Broadcast pushes an announcement to every active user, optionally of one
// type. Nothing is stored; it returns how many devices accepted the push.
func (uc *NotificationUseCase) Broadcast(ctx context.Context, input BroadcastInput) (int, error) {
	active := true
	filter := repository.UserFilter{UserType: input.UserType, IsActive: &active}

	sent := 0
	for page := 1; ; page++ {
		users, total, err := uc.userRepo.List(ctx, filter, broadcastPageSize, offset(page, broadcastPageSize))
		if err != nil {
			return sent, err
		}

		tokens := make([]string, 0, len(users))
		for _, u := range users {
			if u.FCMToken != "" {
				tokens = append(tokens, u.FCMToken)
			}
		}
		if len(tokens) > 0 {
			n, err := uc.push.SendToTokens(ctx, tokens, input.Title, input.Message, map[string]string{"type": "BROADCAST"})
			if err != nil {
				return sent, errors.Internal("Failed to send broadcast", err)
			}
			sent += n
		}

		if int64(page*broadcastPageSize) >= total || len(users) == 0 {
			break
		}
	}

	logger.Info("broadcast %q delivered to %d devices", input.Title, sent)
	return sent, nil
}
