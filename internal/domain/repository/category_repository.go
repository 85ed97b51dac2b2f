package repository

import (
	"context"

	"servicemarket/internal/domain/entity"
)

type CategoryFilter struct {
	ActiveOnly bool
	ParentID   *string
	RootOnly   bool
}

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Category, error)
	List(ctx context.Context, filter CategoryFilter) ([]*entity.Category, error)
	ListChildIDs(ctx context.Context, parentID string) ([]string, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id string) error
	CountReferences(ctx context.Context, id string) (entity.CategoryReferences, error)
}
