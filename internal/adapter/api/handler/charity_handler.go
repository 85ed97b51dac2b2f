package handler

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/usecase"
	"servicemarket/pkg/response"
)

type CharityHandler struct {
	charityUseCase *usecase.CharityUseCase
}

func NewCharityHandler(charityUseCase *usecase.CharityUseCase) *CharityHandler {
	return &CharityHandler{
		charityUseCase: charityUseCase,
	}
}

func (h *CharityHandler) list(c echo.Context, includeInactive bool) error {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		return response.Error(c, err)
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		return response.Error(c, err)
	}
	radius, err := queryFloat(c, "radiusKm")
	if err != nil {
		return response.Error(c, err)
	}

	input := usecase.ListCharitiesInput{
		Latitude:        lat,
		Longitude:       lng,
		City:            c.QueryParam("city"),
		IncludeInactive: includeInactive,
	}
	if radius != nil {
		input.RadiusKm = *radius
	}

	charities, err := h.charityUseCase.List(c.Request().Context(), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, charities)
}

func (h *CharityHandler) ListCharities(c echo.Context) error {
	return h.list(c, false)
}

func (h *CharityHandler) AdminListCharities(c echo.Context) error {
	return h.list(c, true)
}

func (h *CharityHandler) GetCharity(c echo.Context) error {
	id, err := pathID(c, "id", "Charity")
	if err != nil {
		return response.Error(c, err)
	}
	charity, err := h.charityUseCase.Get(c.Request().Context(), id, false)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, charity)
}

type createCharityRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Phone       string   `json:"phone" validate:"omitempty,phone"`
	Address     string   `json:"address" validate:"max=500"`
	City        string   `json:"city" validate:"required,max=100"`
	Latitude    *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	IsActive    *bool    `json:"isActive"`
}

func (h *CharityHandler) CreateCharity(c echo.Context) error {
	var req createCharityRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	charity, err := h.charityUseCase.Create(c.Request().Context(), usecase.CreateCharityInput{
		Name:        req.Name,
		Description: req.Description,
		Phone:       req.Phone,
		Address:     req.Address,
		City:        req.City,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, charity)
}

type updateCharityRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Phone       *string  `json:"phone" validate:"omitempty,phone"`
	Address     *string  `json:"address" validate:"omitempty,max=500"`
	City        *string  `json:"city" validate:"omitempty,min=1,max=100"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	IsActive    *bool    `json:"isActive"`
}

func (h *CharityHandler) UpdateCharity(c echo.Context) error {
	id, err := pathID(c, "id", "Charity")
	if err != nil {
		return response.Error(c, err)
	}

	var req updateCharityRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	charity, err := h.charityUseCase.Update(c.Request().Context(), id, usecase.UpdateCharityInput{
		Name:        req.Name,
		Description: req.Description,
		Phone:       req.Phone,
		Address:     req.Address,
		City:        req.City,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, charity)
}

func (h *CharityHandler) DeleteCharity(c echo.Context) error {
	id, err := pathID(c, "id", "Charity")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.charityUseCase.Delete(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Charity deleted"})
}

func (h *CharityHandler) UploadImage(c echo.Context) error {
	id, err := pathID(c, "id", "Charity")
	if err != nil {
		return response.Error(c, err)
	}

	file, contentType, closeFn, err := imageFromForm(c)
	if err != nil {
		return response.Error(c, err)
	}
	defer closeFn()

	charity, err := h.charityUseCase.UploadImage(c.Request().Context(), id, file, contentType)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, charity)
}
