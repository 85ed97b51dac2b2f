package usecase

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
)

type ReviewUseCase struct {
	reviewRepo repository.ReviewRepository
	userRepo   repository.UserRepository
	offerRepo  repository.OfferRepository
	demandRepo repository.DemandRepository
}

func NewReviewUseCase(
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	offerRepo repository.OfferRepository,
	demandRepo repository.DemandRepository,
) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo: reviewRepo,
		userRepo:   userRepo,
		offerRepo:  offerRepo,
		demandRepo: demandRepo,
	}
}

type CreateReviewInput struct {
	ReviewedUserID string
	OfferID        *string
	Rating         int
	Comment        string
}

func (uc *ReviewUseCase) CreateReview(ctx context.Context, actor Actor, input CreateReviewInput) (*entity.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.BadRequest("Rating must be between 1 and 5", nil)
	}
	if input.ReviewedUserID == actor.UserID {
		return nil, errors.BadRequest("You cannot review yourself", nil)
	}
	if _, err := uc.userRepo.GetByID(ctx, input.ReviewedUserID); err != nil {
		return nil, err
	}

	if input.OfferID != nil {
		if err := uc.checkOfferReview(ctx, actor.UserID, input.ReviewedUserID, *input.OfferID); err != nil {
			return nil, err
		}
	} else {
		exists, err := uc.reviewRepo.ExistsForPair(ctx, actor.UserID, input.ReviewedUserID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errors.BadRequest("You have already reviewed this user", nil)
		}
	}

	review := &entity.Review{
		ID:             uuid.NewString(),
		ReviewerID:     actor.UserID,
		ReviewedUserID: input.ReviewedUserID,
		OfferID:        input.OfferID,
		Rating:         input.Rating,
		Comment:        strings.TrimSpace(input.Comment),
	}
	if err := uc.reviewRepo.Create(ctx, review); err != nil {
		if stderrors.Is(err, repository.ErrDuplicateReview) {
			return nil, errors.BadRequest("You have already left this review", err)
		}
		return nil, err
	}

	return review, nil
}

// checkOfferReview allows a review of a completed offer only between its
// demand owner and provider, once per reviewer.
func (uc *ReviewUseCase) checkOfferReview(ctx context.Context, reviewerID, reviewedUserID, offerID string) error {
	offer, err := uc.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return err
	}
	if offer.Status != entity.OfferStatusCompleted {
		return errors.BadRequest("Only completed offers can be reviewed", nil)
	}

	demand, err := uc.demandRepo.GetByID(ctx, offer.DemandID)
	if err != nil {
		return err
	}

	var counterpart string
	switch reviewerID {
	case demand.UserID:
		counterpart = offer.ProviderID
	case offer.ProviderID:
		counterpart = demand.UserID
	default:
		return errors.Forbidden("Only participants of this offer can review it", nil)
	}
	if reviewedUserID != counterpart {
		return errors.Forbidden("You can only review the other party of this offer", nil)
	}

	exists, err := uc.reviewRepo.ExistsForOffer(ctx, reviewerID, offerID)
	if err != nil {
		return err
	}
	if exists {
		return errors.BadRequest("You have already reviewed this offer", nil)
	}
	return nil
}

func (uc *ReviewUseCase) DeleteReview(ctx context.Context, actor Actor, id string) error {
	review, err := uc.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.ReviewerID != actor.UserID && !actor.IsAdmin {
		return errors.Forbidden("Only the author or an admin can delete this review", nil)
	}
	return uc.reviewRepo.Delete(ctx, id)
}

func (uc *ReviewUseCase) ListForUser(ctx context.Context, userID string, page, limit int) ([]*entity.Review, int64, error) {
	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, 0, err
	}
	return uc.reviewRepo.ListByReviewedUser(ctx, userID, limit, offset(page, limit))
}
