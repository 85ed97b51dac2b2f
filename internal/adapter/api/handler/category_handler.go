package handler

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/response"
)

type CategoryHandler struct {
	categoryUseCase *usecase.CategoryUseCase
}

func NewCategoryHandler(categoryUseCase *usecase.CategoryUseCase) *CategoryHandler {
	return &CategoryHandler{
		categoryUseCase: categoryUseCase,
	}
}

func (h *CategoryHandler) list(c echo.Context, includeInactive bool) error {
	var parent *string
	if c.QueryParam("parentId") == usecase.RootParent {
		root := usecase.RootParent
		parent = &root
	} else {
		parentID, err := queryUUID(c, "parentId")
		if err != nil {
			return response.Error(c, err)
		}
		if parentID != "" {
			parent = &parentID
		}
	}

	categories, err := h.categoryUseCase.List(c.Request().Context(), parent, includeInactive)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, categories)
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	return h.list(c, false)
}

func (h *CategoryHandler) AdminListCategories(c echo.Context) error {
	return h.list(c, true)
}

func (h *CategoryHandler) GetTree(c echo.Context) error {
	tree, err := h.categoryUseCase.Tree(c.Request().Context(), false)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, tree)
}

func (h *CategoryHandler) GetCategory(c echo.Context) error {
	id, err := pathID(c, "id", "Category")
	if err != nil {
		return response.Error(c, err)
	}
	category, err := h.categoryUseCase.Get(c.Request().Context(), id, false)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, category)
}

type createCategoryRequest struct {
	Name           string           `json:"name" validate:"required,max=100"`
	Description    string           `json:"description" validate:"max=2000"`
	ParentID       *string          `json:"parentId" validate:"omitempty,uuid"`
	CommissionRate *decimal.Decimal `json:"commissionRate"`
	IsActive       *bool            `json:"isActive"`
	Questions      json.RawMessage  `json:"questions"`
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req createCategoryRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	category, err := h.categoryUseCase.Create(c.Request().Context(), usecase.CreateCategoryInput{
		Name:           req.Name,
		Description:    req.Description,
		ParentID:       req.ParentID,
		CommissionRate: req.CommissionRate,
		IsActive:       req.IsActive,
		Questions:      req.Questions,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, category)
}

type updateCategoryRequest struct {
	Name           *string                          `json:"name" validate:"omitempty,max=100"`
	Description    *string                          `json:"description" validate:"omitempty,max=2000"`
	ParentID       entity.Nullable[string]          `json:"parentId"`
	CommissionRate entity.Nullable[decimal.Decimal] `json:"commissionRate"`
	IsActive       *bool                            `json:"isActive"`
	Questions      entity.Nullable[json.RawMessage] `json:"questions"`
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c, "id", "Category")
	if err != nil {
		return response.Error(c, err)
	}

	var req updateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	if req.ParentID.Value != nil {
		if _, err := uuid.Parse(*req.ParentID.Value); err != nil {
			return response.Error(c, errors.BadRequest("parentId must be a valid id", nil))
		}
	}

	category, err := h.categoryUseCase.Update(c.Request().Context(), id, usecase.UpdateCategoryInput{
		Name:           req.Name,
		Description:    req.Description,
		ParentID:       req.ParentID,
		CommissionRate: req.CommissionRate,
		IsActive:       req.IsActive,
		Questions:      req.Questions,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, category)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := pathID(c, "id", "Category")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.categoryUseCase.Delete(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Category deleted"})
}

func (h *CategoryHandler) UploadImage(c echo.Context) error {
	id, err := pathID(c, "id", "Category")
	if err != nil {
		return response.Error(c, err)
	}

	file, contentType, closeFn, err := imageFromForm(c)
	if err != nil {
		return response.Error(c, err)
	}
	defer closeFn()

	category, err := h.categoryUseCase.UploadImage(c.Request().Context(), id, file, contentType)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, category)
}
