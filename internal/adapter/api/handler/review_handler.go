package handler

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/usecase"
	"servicemarket/pkg/response"
)

type ReviewHandler struct {
	reviewUseCase *usecase.ReviewUseCase
}

func NewReviewHandler(reviewUseCase *usecase.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{
		reviewUseCase: reviewUseCase,
	}
}

type createReviewRequest struct {
	ReviewedUserID string  `json:"reviewedUserId" validate:"required,uuid"`
	OfferID        *string `json:"offerId" validate:"omitempty,uuid"`
	Rating         int     `json:"rating" validate:"required,min=1,max=5"`
	Comment        string  `json:"comment" validate:"max=2000"`
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	review, err := h.reviewUseCase.CreateReview(c.Request().Context(), actor(c), usecase.CreateReviewInput{
		ReviewedUserID: req.ReviewedUserID,
		OfferID:        req.OfferID,
		Rating:         req.Rating,
		Comment:        req.Comment,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, review)
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id, err := pathID(c, "id", "Review")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.reviewUseCase.DeleteReview(c.Request().Context(), actor(c), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Review deleted"})
}

func (h *ReviewHandler) ListUserReviews(c echo.Context) error {
	id, err := pathID(c, "id", "User")
	if err != nil {
		return response.Error(c, err)
	}
	page, limit := pagination(c)

	reviews, total, err := h.reviewUseCase.ListForUser(c.Request().Context(), id, page, limit)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, "reviews", reviews, total, page, limit)
}
