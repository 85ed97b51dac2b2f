package handler

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.userUseCase.GetProfile(c.Request().Context(), actor(c).UserID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

type updateProfileRequest struct {
	Name        *string                 `json:"name" validate:"omitempty,min=1,max=100"`
	Email       entity.Nullable[string] `json:"email"`
	FCMToken    *string                 `json:"fcmToken" validate:"omitempty,max=4096"`
	CategoryIDs *[]string               `json:"categoryIds" validate:"omitempty,max=100"`
}

type emailCheck struct {
	Email string `json:"email" validate:"email"`
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	if req.Email.Value != nil {
		if err := c.Validate(&emailCheck{Email: *req.Email.Value}); err != nil {
			return response.Error(c, err)
		}
	}

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), actor(c).UserID, usecase.UpdateProfileInput{
		Name:        req.Name,
		Email:       req.Email,
		FCMToken:    req.FCMToken,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) GetPublicProfile(c echo.Context) error {
	id, err := pathID(c, "id", "User")
	if err != nil {
		return response.Error(c, err)
	}
	profile, err := h.userUseCase.GetPublicProfile(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, profile)
}
