package usecase

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

type CategoryUseCase struct {
	categoryRepo repository.CategoryRepository
	resolver     *service.VisibilityResolver
	uploader     service.FileUploadService
}

func NewCategoryUseCase(
	categoryRepo repository.CategoryRepository,
	resolver *service.VisibilityResolver,
	uploader service.FileUploadService,
) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo: categoryRepo,
		resolver:     resolver,
		uploader:     uploader,
	}
}

// RootParent as the parent id lists top-level categories only.
const RootParent = "root"

func (uc *CategoryUseCase) List(ctx context.Context, parentID *string, includeInactive bool) ([]*entity.Category, error) {
	filter := repository.CategoryFilter{ActiveOnly: !includeInactive}
	if parentID != nil && *parentID == RootParent {
		filter.RootOnly = true
	} else {
		filter.ParentID = parentID
	}
	return uc.categoryRepo.List(ctx, filter)
}

func (uc *CategoryUseCase) Get(ctx context.Context, id string, includeInactive bool) (*entity.Category, error) {
	c, err := uc.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsActive && !includeInactive {
		return nil, errors.NotFound("Category", nil)
	}
	return c, nil
}

// Tree returns root categories with their descendants nested. Inactive
// categories and everything under them are dropped unless includeInactive.
func (uc *CategoryUseCase) Tree(ctx context.Context, includeInactive bool) ([]*entity.CategoryNode, error) {
	all, err := uc.categoryRepo.List(ctx, repository.CategoryFilter{ActiveOnly: !includeInactive})
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(all), nil
}

// BuildCategoryTree nests categories by parent. Nodes whose parent is not in
// the list are not reachable from a root and are left out.
func BuildCategoryTree(categories []*entity.Category) []*entity.CategoryNode {
	nodes := make(map[string]*entity.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &entity.CategoryNode{Category: c, Children: []*entity.CategoryNode{}}
	}

	roots := make([]*entity.CategoryNode, 0)
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}
	return roots
}

type CreateCategoryInput struct {
	Name           string
	Description    string
	ParentID       *string
	CommissionRate *decimal.Decimal
	IsActive       *bool
	Questions      json.RawMessage
}

func (uc *CategoryUseCase) Create(ctx context.Context, input CreateCategoryInput) (*entity.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.BadRequest("Category name is required", nil)
	}
	if err := validateRate(input.CommissionRate); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if err := uc.ensureParentExists(ctx, *input.ParentID); err != nil {
			return nil, err
		}
	}

	category := &entity.Category{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    input.Description,
		ParentID:       input.ParentID,
		CommissionRate: input.CommissionRate,
		IsActive:       true,
		Questions:      input.Questions,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := uc.categoryRepo.Create(ctx, category); err != nil {
		if stderrors.Is(err, repository.ErrDuplicateCategory) {
			return nil, errors.BadRequest("A category with this name already exists", err)
		}
		return nil, err
	}
	return category, nil
}

type UpdateCategoryInput struct {
	Name           *string
	Description    *string
	ParentID       entity.Nullable[string]
	CommissionRate entity.Nullable[decimal.Decimal]
	IsActive       *bool
	Questions      entity.Nullable[json.RawMessage]
}

func (uc *CategoryUseCase) Update(ctx context.Context, id string, input UpdateCategoryInput) (*entity.Category, error) {
	category, err := uc.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.BadRequest("Category name is required", nil)
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = *input.Description
	}
	if input.ParentID.Set {
		if input.ParentID.Value != nil {
			if err := uc.checkParent(ctx, id, *input.ParentID.Value); err != nil {
				return nil, err
			}
		}
		category.ParentID = input.ParentID.Value
	}
	if input.CommissionRate.Set {
		if err := validateRate(input.CommissionRate.Value); err != nil {
			return nil, err
		}
		category.CommissionRate = input.CommissionRate.Value
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.Questions.Set {
		if input.Questions.Value == nil {
			category.Questions = nil
		} else {
			category.Questions = *input.Questions.Value
		}
	}

	if err := uc.categoryRepo.Update(ctx, category); err != nil {
		if stderrors.Is(err, repository.ErrDuplicateCategory) {
			return nil, errors.BadRequest("A category with this name already exists", err)
		}
		return nil, err
	}
	return category, nil
}

func (uc *CategoryUseCase) ensureParentExists(ctx context.Context, parentID string) error {
	if _, err := uc.categoryRepo.GetByID(ctx, parentID); err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return errors.BadRequest("Parent category does not exist", nil)
		}
		return err
	}
	return nil
}

func (uc *CategoryUseCase) checkParent(ctx context.Context, id, parentID string) error {
	if err := uc.ensureParentExists(ctx, parentID); err != nil {
		return err
	}
	cycle, err := uc.resolver.WouldCycle(ctx, id, parentID)
	if err != nil {
		return err
	}
	if cycle {
		return errors.BadRequest("A category cannot be placed under itself or one of its descendants", nil)
	}
	return nil
}

func validateRate(rate *decimal.Decimal) error {
	if rate != nil && (rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1000))) {
		return errors.BadRequest("Commission rate must be between 0 and 1000 (per mille)", nil)
	}
	return nil
}

// Delete removes a category nothing refers to anymore.
func (uc *CategoryUseCase) Delete(ctx context.Context, id string) error {
	category, err := uc.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	refs, err := uc.categoryRepo.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if refs.InUse() {
		return errors.BadRequest(fmt.Sprintf(
			"Category is in use (%d demands, %d subcategories, %d subscribed providers)",
			refs.Demands, refs.Children, refs.Subscribers), nil)
	}

	if err := uc.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	if category.ImageURL != "" && uc.uploader != nil {
		if err := uc.uploader.DeleteFile(ctx, category.ImageURL); err != nil {
			logger.Warn("failed to delete image of category %s: %v", id, err)
		}
	}
	return nil
}

func (uc *CategoryUseCase) UploadImage(ctx context.Context, id string, file io.Reader, contentType string) (*entity.Category, error) {
	if uc.uploader == nil {
		return nil, errors.Unavailable("Image storage is not configured")
	}
	category, err := uc.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := uc.uploader.UploadFile(ctx, file, contentType, "categories")
	if err != nil {
		return nil, errors.Internal("Failed to upload image", err)
	}

	previous := category.ImageURL
	category.ImageURL = url
	if err := uc.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	if previous != "" {
		if err := uc.uploader.DeleteFile(ctx, previous); err != nil {
			logger.Warn("failed to delete previous image of category %s: %v", id, err)
		}
	}
	return category, nil
}
