package handler

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/response"
)

type AuthHandler struct {
	otpService  *usecase.OTPService
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(otpService *usecase.OTPService, authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		otpService:  otpService,
		authUseCase: authUseCase,
	}
}

type sendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
}

func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req sendOTPRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.otpService.SendOTP(c.Request().Context(), req.PhoneNumber)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	UserType    string `json:"userType" validate:"omitempty,oneof=PROVIDER RECEIVER"`
	Name        string `json:"name" validate:"max=100"`
}

func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.VerifyOTP(c.Request().Context(), usecase.VerifyOTPInput{
		PhoneNumber: req.PhoneNumber,
		Code:        req.Code,
		UserType:    entity.UserType(req.UserType),
		Name:        req.Name,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

type adminLoginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Password    string `json:"password" validate:"required"`
}

func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.AdminLogin(c.Request().Context(), req.PhoneNumber, req.Password)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}
