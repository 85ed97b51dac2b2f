package handler

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/response"
)

type DemandHandler struct {
	demandUseCase *usecase.DemandUseCase
}

func NewDemandHandler(demandUseCase *usecase.DemandUseCase) *DemandHandler {
	return &DemandHandler{
		demandUseCase: demandUseCase,
	}
}

type createDemandRequest struct {
	CategoryID  string          `json:"categoryId" validate:"required,uuid"`
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	City        string          `json:"city" validate:"max=100"`
	District    string          `json:"district" validate:"max=100"`
	Answers     json.RawMessage `json:"answers"`
}

func (h *DemandHandler) CreateDemand(c echo.Context) error {
	var req createDemandRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	demand, err := h.demandUseCase.Create(c.Request().Context(), actor(c), usecase.CreateDemandInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
		District:    req.District,
		Answers:     req.Answers,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, demand)
}

func demandStatusParam(c echo.Context) (entity.DemandStatus, error) {
	status := entity.DemandStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return "", errors.BadRequest("status must be one of ACTIVE, CLOSED, COMPLETED, CANCELLED", nil)
	}
	return status, nil
}

func (h *DemandHandler) ListDemands(c echo.Context) error {
	categoryID, err := queryUUID(c, "category")
	if err != nil {
		return response.Error(c, err)
	}
	status, err := demandStatusParam(c)
	if err != nil {
		return response.Error(c, err)
	}
	page, limit := pagination(c)

	demands, total, err := h.demandUseCase.List(c.Request().Context(), actor(c), usecase.ListDemandsInput{
		CategoryID: categoryID,
		Status:     status,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, "demands", demands, total, page, limit)
}

func (h *DemandHandler) GetDemand(c echo.Context) error {
	id, err := pathID(c, "id", "Demand")
	if err != nil {
		return response.Error(c, err)
	}
	demand, err := h.demandUseCase.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, demand)
}

func (h *DemandHandler) CancelDemand(c echo.Context) error {
	id, err := pathID(c, "id", "Demand")
	if err != nil {
		return response.Error(c, err)
	}
	demand, err := h.demandUseCase.Cancel(c.Request().Context(), actor(c), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, demand)
}

func (h *DemandHandler) DeleteDemand(c echo.Context) error {
	id, err := pathID(c, "id", "Demand")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.demandUseCase.Delete(c.Request().Context(), actor(c), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Demand deleted"})
}
