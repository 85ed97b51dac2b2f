package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

// OfferUseCase prices, charges and settles provider offers.
type OfferUseCase struct {
	offerRepo    repository.OfferRepository
	demandRepo   repository.DemandRepository
	userRepo     repository.UserRepository
	categoryRepo repository.CategoryRepository
	notifier     Notifier
}

func NewOfferUseCase(
	offerRepo repository.OfferRepository,
	demandRepo repository.DemandRepository,
	userRepo repository.UserRepository,
	categoryRepo repository.CategoryRepository,
	notifier Notifier,
) *OfferUseCase {
	return &OfferUseCase{
		offerRepo:    offerRepo,
		demandRepo:   demandRepo,
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		notifier:     notifier,
	}
}

const (
	msgDuplicateOffer = "You have already submitted an offer for this demand"

	maxOfferMessageLength = 1000
)

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return errors.BadRequest("Price cannot be negative", nil)
	}
	if !service.ValidAmount(price) {
		return errors.BadRequest(fmt.Sprintf("Price must have at most two decimals and not exceed %s", service.MaxAmount.StringFixed(2)), nil)
	}
	return nil
}

func validateOfferMessage(message string) error {
	if utf8.RuneCountInString(message) > maxOfferMessageLength {
		return errors.BadRequest(fmt.Sprintf("Message must be at most %d characters", maxOfferMessageLength), nil)
	}
	return nil
}

type CreateOfferInput struct {
	DemandID      string
	Price         decimal.Decimal
	EstimatedTime string
	Message       string
}

type CreateOfferResult struct {
	Offer            *entity.Offer   `json:"offer"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	NewBalance       decimal.Decimal `json:"newBalance"`
}

// Create charges the provider the category commission and records the
// offer in one transaction, then tells the demand owner.
func (uc *OfferUseCase) Create(ctx context.Context, actor Actor, input CreateOfferInput) (*CreateOfferResult, error) {
	if !actor.IsProvider() {
		return nil, errors.Forbidden("Only providers can submit offers", nil)
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.EstimatedTime) == "" {
		return nil, errors.BadRequest("Estimated time is required", nil)
	}
	if err := validateOfferMessage(input.Message); err != nil {
		return nil, err
	}

	demand, err := uc.demandRepo.GetByID(ctx, input.DemandID)
	if err != nil {
		return nil, err
	}
	if demand.Status != entity.DemandStatusActive {
		return nil, errors.BadRequest("This demand is no longer accepting offers", nil)
	}

	existing, err := uc.offerRepo.GetByDemandAndProvider(ctx, demand.ID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.BadRequest(msgDuplicateOffer, nil)
	}

	provider, err := uc.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, errors.NotFound("Provider", err)
		}
		return nil, err
	}

	category, err := uc.categoryRepo.GetByID(ctx, demand.CategoryID)
	if err != nil {
		return nil, err
	}
	commission := service.CalculateCommission(input.Price, category.CommissionRate)

	if provider.Balance.LessThan(commission) {
		return nil, insufficientBalance(commission, provider.Balance)
	}

	offer := &entity.Offer{
		ID:            uuid.NewString(),
		DemandID:      demand.ID,
		ProviderID:    provider.ID,
		Price:         input.Price,
		EstimatedTime: strings.TrimSpace(input.EstimatedTime),
		Message:       input.Message,
		Status:        entity.OfferStatusPending,
		IsApproved:    true,
	}

	newBalance, err := uc.offerRepo.CreateWithCommission(ctx, offer, commission)
	if err != nil {
		switch {
		case stderrors.Is(err, repository.ErrDuplicateOffer):
			return nil, errors.BadRequest(msgDuplicateOffer, err)
		case stderrors.Is(err, repository.ErrInsufficientBalance):
			// Balance moved between the check and the locked read.
			fresh, getErr := uc.userRepo.GetByID(ctx, provider.ID)
			if getErr == nil {
				provider = fresh
			}
			return nil, insufficientBalance(commission, provider.Balance)
		}
		return nil, err
	}
	logger.With("offerId", offer.ID, "providerId", provider.ID, "demandId", demand.ID).
		Infof("commission %s charged, balance now %s", commission.StringFixed(2), newBalance.StringFixed(2))

	uc.notifier.Notify(ctx, demand.UserID, entity.NotificationNewOffer,
		"New offer",
		fmt.Sprintf("You received a new offer of %s for demand #%d.", offer.Price.StringFixed(2), demand.DemandNumber),
		map[string]string{"offerId": offer.ID, "demandId": demand.ID})

	return &CreateOfferResult{
		Offer:            offer,
		CommissionAmount: commission,
		NewBalance:       newBalance,
	}, nil
}

func insufficientBalance(commission, balance decimal.Decimal) error {
	return errors.BadRequest(fmt.Sprintf("Insufficient balance. Required commission: %s, current balance: %s",
		commission.StringFixed(2), balance.StringFixed(2)), repository.ErrInsufficientBalance)
}

// UpdateStatus lets the demand owner accept or reject a pending offer.
// Accepting closes the demand in the same transaction.
func (uc *OfferUseCase) UpdateStatus(ctx context.Context, actor Actor, offerID string, status entity.OfferStatus) (*entity.Offer, error) {
	if status != entity.OfferStatusAccepted && status != entity.OfferStatusRejected {
		return nil, errors.BadRequest("Status must be ACCEPTED or REJECTED", nil)
	}

	offer, err := uc.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	demand, err := uc.demandRepo.GetByID(ctx, offer.DemandID)
	if err != nil {
		return nil, err
	}
	if demand.UserID != actor.UserID {
		return nil, errors.Forbidden("Only the demand owner can respond to offers", nil)
	}
	if offer.Status != entity.OfferStatusPending {
		return nil, errors.BadRequest(fmt.Sprintf("Offer is already %s", offer.Status), nil)
	}

	var updated *entity.Offer
	if status == entity.OfferStatusAccepted {
		if demand.Status != entity.DemandStatusActive {
			return nil, errors.BadRequest("Demand is no longer active", nil)
		}
		updated, err = uc.offerRepo.Accept(ctx, offer.ID, demand.ID)
	} else {
		updated, err = uc.offerRepo.TransitionStatus(ctx, offer.ID, entity.OfferStatusPending, entity.OfferStatusRejected)
	}
	if err != nil {
		if stderrors.Is(err, repository.ErrStateChanged) {
			return nil, errors.BadRequest("Offer or demand was updated by someone else, please refresh", err)
		}
		return nil, err
	}

	data := map[string]string{"offerId": updated.ID, "demandId": demand.ID}
	if status == entity.OfferStatusAccepted {
		uc.notifier.Notify(ctx, updated.ProviderID, entity.NotificationOfferAccepted, "Offer accepted",
			fmt.Sprintf("Your offer for demand #%d was accepted.", demand.DemandNumber), data)
	} else {
		uc.notifier.Notify(ctx, updated.ProviderID, entity.NotificationOfferRejected, "Offer rejected",
			fmt.Sprintf("Your offer for demand #%d was declined.", demand.DemandNumber), data)
	}
	return updated, nil
}

// Complete is the provider marking an accepted job done. It can only
// happen once.
func (uc *OfferUseCase) Complete(ctx context.Context, actor Actor, offerID string) (*entity.Offer, error) {
	offer, err := uc.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.ProviderID != actor.UserID {
		return nil, errors.Forbidden("Only the provider of this offer can complete it", nil)
	}
	if offer.ProviderCompleted {
		return nil, errors.BadRequest("Offer is already marked as completed", nil)
	}
	if offer.Status != entity.OfferStatusAccepted {
		return nil, errors.BadRequest("Only accepted offers can be completed", nil)
	}

	updated, err := uc.offerRepo.MarkCompleted(ctx, offer.ID)
	if err != nil {
		if stderrors.Is(err, repository.ErrStateChanged) {
			return nil, errors.BadRequest("Offer is already marked as completed", err)
		}
		return nil, err
	}

	demand, err := uc.demandRepo.GetByID(ctx, updated.DemandID)
	if err == nil {
		uc.notifier.Notify(ctx, demand.UserID, entity.NotificationOfferCompleted, "Job completed",
			fmt.Sprintf("The provider completed demand #%d. Please leave a review.", demand.DemandNumber),
			map[string]string{"offerId": updated.ID, "demandId": demand.ID, "providerId": updated.ProviderID})
	}
	return updated, nil
}

func (uc *OfferUseCase) Get(ctx context.Context, actor Actor, offerID string) (*entity.Offer, error) {
	offer, err := uc.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin || offer.ProviderID == actor.UserID {
		return offer, nil
	}
	demand, err := uc.demandRepo.GetByID(ctx, offer.DemandID)
	if err != nil {
		return nil, err
	}
	if demand.UserID != actor.UserID {
		return nil, errors.Forbidden("You do not have access to this offer", nil)
	}
	return offer, nil
}

// ListForDemand returns every offer to the owner or an admin, and only the
// caller's own offer to a provider.
func (uc *OfferUseCase) ListForDemand(ctx context.Context, actor Actor, demandID string) ([]*entity.Offer, error) {
	demand, err := uc.demandRepo.GetByID(ctx, demandID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin || demand.UserID == actor.UserID:
		return uc.offerRepo.ListByDemand(ctx, demandID)
	case actor.IsProvider():
		own, err := uc.offerRepo.GetByDemandAndProvider(ctx, demandID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if own == nil {
			return []*entity.Offer{}, nil
		}
		return []*entity.Offer{own}, nil
	}
	return nil, errors.Forbidden("You do not have access to offers on this demand", nil)
}

func (uc *OfferUseCase) ListMine(ctx context.Context, actor Actor, page, limit int) ([]*entity.Offer, int64, error) {
	return uc.offerRepo.ListByProvider(ctx, actor.UserID, limit, offset(page, limit))
}

type AdminUpdateOfferInput struct {
	Price         *decimal.Decimal
	EstimatedTime *string
	Message       *string
}

// AdminUpdate edits offer terms. The commission already charged is not
// recalculated.
func (uc *OfferUseCase) AdminUpdate(ctx context.Context, offerID string, input AdminUpdateOfferInput) (*entity.Offer, error) {
	offer, err := uc.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		offer.Price = *input.Price
	}
	if input.EstimatedTime != nil {
		if strings.TrimSpace(*input.EstimatedTime) == "" {
			return nil, errors.BadRequest("Estimated time is required", nil)
		}
		offer.EstimatedTime = strings.TrimSpace(*input.EstimatedTime)
	}
	if input.Message != nil {
		if err := validateOfferMessage(*input.Message); err != nil {
			return nil, err
		}
		offer.Message = *input.Message
	}
	if err := uc.offerRepo.Update(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

func (uc *OfferUseCase) AdminDelete(ctx context.Context, offerID string) error {
	return uc.offerRepo.Delete(ctx, offerID)
}
