package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
)

type OfferRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Offer, error)
	// GetByDemandAndProvider returns (nil, nil) when no offer exists.
	GetByDemandAndProvider(ctx context.Context, demandID, providerID string) (*entity.Offer, error)
	ListByDemand(ctx context.Context, demandID string) ([]*entity.Offer, error)
	ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*entity.Offer, int64, error)

	// CreateWithCommission debits the provider by commission and inserts the
	// offer in one transaction, returning the provider's new balance.
	// Fails with ErrInsufficientBalance or ErrDuplicateOffer.
	CreateWithCommission(ctx context.Context, offer *entity.Offer, commission decimal.Decimal) (decimal.Decimal, error)

	// Accept moves a PENDING offer to ACCEPTED and closes its ACTIVE demand in
	// one transaction. Fails with ErrStateChanged if either row moved on.
	Accept(ctx context.Context, offerID, demandID string) (*entity.Offer, error)
	// TransitionStatus updates status only if the offer is still in from.
	TransitionStatus(ctx context.Context, offerID string, from, to entity.OfferStatus) (*entity.Offer, error)
	// MarkCompleted flips an ACCEPTED, not yet completed offer to COMPLETED.
	MarkCompleted(ctx context.Context, offerID string) (*entity.Offer, error)

	Update(ctx context.Context, offer *entity.Offer) error
	Delete(ctx context.Context, id string) error
}
