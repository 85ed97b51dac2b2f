package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/response"
)

type OfferHandler struct {
	offerUseCase *usecase.OfferUseCase
}

func NewOfferHandler(offerUseCase *usecase.OfferUseCase) *OfferHandler {
	return &OfferHandler{
		offerUseCase: offerUseCase,
	}
}

type createOfferRequest struct {
	DemandID      string           `json:"demandId" validate:"required,uuid"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
	EstimatedTime string           `json:"estimatedTime" validate:"required,max=100"`
	Message       string           `json:"message" validate:"max=1000"`
}

func (h *OfferHandler) CreateOffer(c echo.Context) error {
	var req createOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.offerUseCase.Create(c.Request().Context(), actor(c), usecase.CreateOfferInput{
		DemandID:      req.DemandID,
		Price:         *req.Price,
		EstimatedTime: req.EstimatedTime,
		Message:       req.Message,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, result)
}

type updateOfferStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACCEPTED REJECTED"`
}

func (h *OfferHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id", "Offer")
	if err != nil {
		return response.Error(c, err)
	}

	var req updateOfferStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	offer, err := h.offerUseCase.UpdateStatus(c.Request().Context(), actor(c), id, entity.OfferStatus(req.Status))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, offer)
}

func (h *OfferHandler) CompleteOffer(c echo.Context) error {
	id, err := pathID(c, "id", "Offer")
	if err != nil {
		return response.Error(c, err)
	}
	offer, err := h.offerUseCase.Complete(c.Request().Context(), actor(c), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, offer)
}

func (h *OfferHandler) GetOffer(c echo.Context) error {
	id, err := pathID(c, "id", "Offer")
	if err != nil {
		return response.Error(c, err)
	}
	offer, err := h.offerUseCase.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, offer)
}

func (h *OfferHandler) ListMyOffers(c echo.Context) error {
	page, limit := pagination(c)
	offers, total, err := h.offerUseCase.ListMine(c.Request().Context(), actor(c), page, limit)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, "offers", offers, total, page, limit)
}

func (h *OfferHandler) ListForDemand(c echo.Context) error {
	id, err := pathID(c, "id", "Demand")
	if err != nil {
		return response.Error(c, err)
	}
	offers, err := h.offerUseCase.ListForDemand(c.Request().Context(), actor(c), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, offers)
}
