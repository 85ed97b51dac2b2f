package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

type DemandUseCase struct {
	demandRepo   repository.DemandRepository
	categoryRepo repository.CategoryRepository
	resolver     *service.VisibilityResolver
	notifier     Notifier
	push         PushSender
}

func NewDemandUseCase(
	demandRepo repository.DemandRepository,
	categoryRepo repository.CategoryRepository,
	resolver *service.VisibilityResolver,
	notifier Notifier,
	push PushSender,
) *DemandUseCase {
	return &DemandUseCase{
		demandRepo:   demandRepo,
		categoryRepo: categoryRepo,
		resolver:     resolver,
		notifier:     notifier,
		push:         push,
	}
}

type CreateDemandInput struct {
	CategoryID  string
	Title       string
	Description string
	City        string
	District    string
	Answers     json.RawMessage
}

// Create posts a new demand. It stays hidden from providers until approved.
func (uc *DemandUseCase) Create(ctx context.Context, actor Actor, input CreateDemandInput) (*entity.Demand, error) {
	if !actor.IsReceiver() {
		return nil, errors.Forbidden("Only receivers can post demands", nil)
	}

	category, err := uc.categoryRepo.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, errors.BadRequest("Category is not active", nil)
	}

	demand := &entity.Demand{
		ID:           uuid.NewString(),
		UserID:       actor.UserID,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		City:         input.City,
		District:     input.District,
		Answers:      input.Answers,
		Status:       entity.DemandStatusActive,
		IsApproved:   false,
	}
	if err := uc.demandRepo.Create(ctx, demand); err != nil {
		return nil, err
	}
	return demand, nil
}

type ListDemandsInput struct {
	CategoryID string
	Status     entity.DemandStatus
	Page       int
	Limit      int
}

// List applies the caller's visibility: receivers see their own demands,
// providers see approved demands in their category closure, admins see all.
func (uc *DemandUseCase) List(ctx context.Context, actor Actor, input ListDemandsInput) ([]*entity.Demand, int64, error) {
	filter := repository.DemandFilter{
		CategoryID: input.CategoryID,
		Status:     input.Status,
	}

	switch {
	case actor.IsAdmin:
	case actor.IsProvider():
		approved := true
		filter.IsApproved = &approved

		allowed, err := uc.resolver.AllowedFor(ctx, actor.UserID)
		if err != nil {
			return nil, 0, err
		}
		if allowed != nil {
			if input.CategoryID != "" && !allowed.Contains(input.CategoryID) {
				return []*entity.Demand{}, 0, nil
			}
			if input.CategoryID == "" {
				filter.CategoryIDs = allowed.IDs()
			}
		}
	default:
		filter.OwnerID = actor.UserID
	}

	return uc.demandRepo.List(ctx, filter, input.Limit, offset(input.Page, input.Limit))
}

func (uc *DemandUseCase) Get(ctx context.Context, actor Actor, id string) (*entity.Demand, error) {
	demand, err := uc.demandRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.CheckVisible(ctx, actor, demand); err != nil {
		return nil, err
	}
	return demand, nil
}

// CheckVisible returns a 403 error when actor may not see demand.
func (uc *DemandUseCase) CheckVisible(ctx context.Context, actor Actor, demand *entity.Demand) error {
	if actor.IsAdmin || demand.UserID == actor.UserID {
		return nil
	}
	if !actor.IsProvider() {
		return errors.Forbidden("You do not have access to this demand", nil)
	}
	if !demand.IsApproved {
		return errors.Forbidden("This demand is awaiting approval", nil)
	}

	allowed, err := uc.resolver.AllowedFor(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !allowed.Contains(demand.CategoryID) {
		return errors.Forbidden("This demand is outside your service categories", nil)
	}
	return nil
}

func (uc *DemandUseCase) Cancel(ctx context.Context, actor Actor, id string) (*entity.Demand, error) {
	demand, err := uc.demandRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if demand.UserID != actor.UserID {
		return nil, errors.Forbidden("Only the owner can cancel this demand", nil)
	}
	if demand.Status != entity.DemandStatusActive {
		return nil, errors.BadRequest(fmt.Sprintf("Only active demands can be cancelled (current status: %s)", demand.Status), nil)
	}

	if err := uc.demandRepo.UpdateStatus(ctx, id, entity.DemandStatusCancelled); err != nil {
		return nil, err
	}
	demand.Status = entity.DemandStatusCancelled
	return demand, nil
}

func (uc *DemandUseCase) Delete(ctx context.Context, actor Actor, id string) error {
	demand, err := uc.demandRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if demand.UserID != actor.UserID && !actor.IsAdmin {
		return errors.Forbidden("Only the owner or an admin can delete this demand", nil)
	}
	return uc.demandRepo.Delete(ctx, id)
}

type AdminListDemandsInput struct {
	Approved   *bool
	Status     entity.DemandStatus
	CategoryID string
	Page       int
	Limit      int
}

func (uc *DemandUseCase) AdminList(ctx context.Context, input AdminListDemandsInput) ([]*entity.Demand, int64, error) {
	filter := repository.DemandFilter{
		CategoryID: input.CategoryID,
		Status:     input.Status,
		IsApproved: input.Approved,
	}
	return uc.demandRepo.List(ctx, filter, input.Limit, offset(input.Page, input.Limit))
}

// Approve publishes a demand to providers and announces it on the topics of
// its category and every ancestor, since subscribing to a parent covers it.
func (uc *DemandUseCase) Approve(ctx context.Context, id string) (*entity.Demand, error) {
	demand, err := uc.demandRepo.SetApproval(ctx, id, true, "")
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, demand.UserID, entity.NotificationDemandApproved,
		"Demand approved",
		fmt.Sprintf("Your demand #%d \"%s\" is now visible to providers.", demand.DemandNumber, demand.Title),
		map[string]string{"demandId": demand.ID})

	uc.announce(ctx, demand)
	return demand, nil
}

func (uc *DemandUseCase) announce(ctx context.Context, demand *entity.Demand) {
	if uc.push == nil || demand.Status != entity.DemandStatusActive {
		return
	}
	ancestors, err := uc.resolver.Ancestors(ctx, demand.CategoryID)
	if err != nil {
		logger.Warn("cannot resolve ancestors of category %s: %v", demand.CategoryID, err)
	}

	data := map[string]string{"type": "NEW_DEMAND", "demandId": demand.ID, "categoryId": demand.CategoryID}
	body := fmt.Sprintf("%s: %s", demand.CategoryName, demand.Title)
	for _, categoryID := range append([]string{demand.CategoryID}, ancestors...) {
		if err := uc.push.SendToTopic(ctx, CategoryTopic(categoryID), "New demand", body, data); err != nil {
			logger.Warn("failed to announce demand %s on category %s: %v", demand.ID, categoryID, err)
		}
	}
}

func (uc *DemandUseCase) Reject(ctx context.Context, id, reason string) (*entity.Demand, error) {
	demand, err := uc.demandRepo.SetApproval(ctx, id, false, entity.DemandStatusCancelled)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your demand #%d \"%s\" was not approved.", demand.DemandNumber, demand.Title)
	if reason = strings.TrimSpace(reason); reason != "" {
		message += " Reason: " + reason
	}
	uc.notifier.Notify(ctx, demand.UserID, entity.NotificationDemandRejected, "Demand rejected", message,
		map[string]string{"demandId": demand.ID})

	return demand, nil
}
