package repository

import (
	"context"

	"servicemarket/internal/domain/entity"
)

type CharityFilter struct {
	City       string
	ActiveOnly bool
}

type CharityRepository interface {
	Create(ctx context.Context, charity *entity.Charity) error
	GetByID(ctx context.Context, id string) (*entity.Charity, error)
	List(ctx context.Context, filter CharityFilter) ([]*entity.Charity, error)
	Update(ctx context.Context, charity *entity.Charity) error
	Delete(ctx context.Context, id string) error
}
