package repository

import (
	"context"

	"servicemarket/internal/domain/entity"
)

// DemandFilter narrows a listing. A nil CategoryIDs means unrestricted; an
// empty non-nil slice matches nothing.
type DemandFilter struct {
	OwnerID      string
	CategoryID   string
	CategoryIDs  []string
	Status       entity.DemandStatus
	IsApproved   *bool
}

type DemandRepository interface {
	Create(ctx context.Context, demand *entity.Demand) error
	GetByID(ctx context.Context, id string) (*entity.Demand, error)
	List(ctx context.Context, filter DemandFilter, limit, offset int) ([]*entity.Demand, int64, error)
	UpdateStatus(ctx context.Context, id string, status entity.DemandStatus) error
	SetApproval(ctx context.Context, id string, approved bool, status entity.DemandStatus) (*entity.Demand, error)
	Delete(ctx context.Context, id string) error
}
