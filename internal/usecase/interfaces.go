package usecase

import (
	"context"
	"time"

	"servicemarket/internal/domain/entity"
	"servicemarket/pkg/utils"
)

// Actor is the authenticated caller as resolved by the auth middleware.
type Actor struct {
	UserID   string
	UserType entity.UserType
	IsAdmin  bool
}

func (a Actor) IsProvider() bool {
	return a.UserType == entity.UserTypeProvider
}

func (a Actor) IsReceiver() bool {
	return a.UserType == entity.UserTypeReceiver
}

type SMSSender interface {
	Send(ctx context.Context, phone, text string) (jobID string, err error)
}

type PushSender interface {
	SendToToken(ctx context.Context, token, title, body string, data map[string]string) error
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) (int, error)
	SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error
	SubscribeToTopics(ctx context.Context, token string, topics []string) error
	UnsubscribeFromTopics(ctx context.Context, token string, topics []string) error
}

type RealtimePublisher interface {
	Publish(userID, eventType string, data interface{}) error
}

type TokenIssuer interface {
	Issue(user *entity.User) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type RateLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}

// Notifier records a notification for a user and pushes it. Failures are
// logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind entity.NotificationType, title, message string, data map[string]string)
}

func offset(page, limit int) int {
	if page < 1 {
		return 0
	}
	if page > utils.MaxPage {
		page = utils.MaxPage
	}
	return (page - 1) * limit
}
