package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
)

type UserFilter struct {
	UserType *entity.UserType
	IsActive *bool
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	List(ctx context.Context, filter UserFilter, limit, offset int) ([]*entity.User, int64, error)
	// AddBalance credits amount and returns the new balance. It fails with
	// ErrBalanceLimit rather than let the balance pass limit.
	AddBalance(ctx context.Context, userID string, amount, limit decimal.Decimal) (decimal.Decimal, error)

	GetCategoryIDs(ctx context.Context, userID string) ([]string, error)
	// ReplaceCategories swaps the user's subscriptions for categoryIDs atomically.
	ReplaceCategories(ctx context.Context, userID string, categoryIDs []string) error
}
