package repository

import (
	"context"

	"servicemarket/internal/domain/entity"
)

// ReviewRepository keeps users.rating and users.rating_count in step with
// the reviews table: Create and Delete refresh them in the same transaction.
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	Delete(ctx context.Context, id string) error
	ExistsForPair(ctx context.Context, reviewerID, reviewedUserID string) (bool, error)
	ExistsForOffer(ctx context.Context, reviewerID, offerID string) (bool, error)
	ListByReviewedUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Review, int64, error)
}
