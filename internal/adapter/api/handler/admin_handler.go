package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/response"
)

// AdminHandler serves moderation endpoints that span several use cases.
// Category and charity management live on their own handlers.
type AdminHandler struct {
	userUseCase         *usecase.UserUseCase
	demandUseCase       *usecase.DemandUseCase
	offerUseCase        *usecase.OfferUseCase
	notificationUseCase *usecase.NotificationUseCase
}

func NewAdminHandler(
	userUseCase *usecase.UserUseCase,
	demandUseCase *usecase.DemandUseCase,
	offerUseCase *usecase.OfferUseCase,
	notificationUseCase *usecase.NotificationUseCase,
) *AdminHandler {
	return &AdminHandler{
		userUseCase:         userUseCase,
		demandUseCase:       demandUseCase,
		offerUseCase:        offerUseCase,
		notificationUseCase: notificationUseCase,
	}
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	userType, err := queryUserType(c)
	if err != nil {
		return response.Error(c, err)
	}
	isActive, err := queryBool(c, "isActive")
	if err != nil {
		return response.Error(c, err)
	}
	page, limit := pagination(c)

	users, total, err := h.userUseCase.ListUsers(c.Request().Context(), usecase.ListUsersInput{
		UserType: userType,
		IsActive: isActive,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, "users", users, total, page, limit)
}

type createUserRequest struct {
	PhoneNumber    string           `json:"phoneNumber" validate:"required,phone"`
	Name           string           `json:"name" validate:"max=100"`
	Email          *string          `json:"email" validate:"omitempty,email"`
	UserType       string           `json:"userType" validate:"required,oneof=PROVIDER RECEIVER"`
	IsAdmin        bool             `json:"isAdmin"`
	Password       string           `json:"password" validate:"omitempty,min=8,max=72"`
	InitialBalance *decimal.Decimal `json:"initialBalance"`
}

func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	input := usecase.AdminCreateUserInput{
		PhoneNumber: req.PhoneNumber,
		Name:        req.Name,
		Email:       req.Email,
		UserType:    entity.UserType(req.UserType),
		IsAdmin:     req.IsAdmin,
		Password:    req.Password,
	}
	if req.InitialBalance != nil {
		input.InitialBalance = *req.InitialBalance
	}

	user, err := h.userUseCase.CreateUser(c.Request().Context(), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, user)
}

type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	IsActive *bool   `json:"isActive"`
	IsAdmin  *bool   `json:"isAdmin"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id", "User")
	if err != nil {
		return response.Error(c, err)
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.UpdateUser(c.Request().Context(), actor(c).UserID, id, usecase.AdminUpdateUserInput{
		Name:     req.Name,
		IsActive: req.IsActive,
		IsAdmin:  req.IsAdmin,
		Password: req.Password,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

type creditBalanceRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

func (h *AdminHandler) CreditBalance(c echo.Context) error {
	id, err := pathID(c, "id", "User")
	if err != nil {
		return response.Error(c, err)
	}

	var req creditBalanceRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.CreditBalance(c.Request().Context(), id, *req.Amount)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *AdminHandler) ListDemands(c echo.Context) error {
	approved, err := queryBool(c, "approved")
	if err != nil {
		return response.Error(c, err)
	}
	status, err := demandStatusParam(c)
	if err != nil {
		return response.Error(c, err)
	}
	categoryID, err := queryUUID(c, "category")
	if err != nil {
		return response.Error(c, err)
	}
	page, limit := pagination(c)

	demands, total, err := h.demandUseCase.AdminList(c.Request().Context(), usecase.AdminListDemandsInput{
		Approved:   approved,
		Status:     status,
		CategoryID: categoryID,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, "demands", demands, total, page, limit)
}

func (h *AdminHandler) ApproveDemand(c echo.Context) error {
	id, err := pathID(c, "id", "Demand")
	if err != nil {
		return response.Error(c, err)
	}
	demand, err := h.demandUseCase.Approve(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, demand)
}

type rejectDemandRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

func (h *AdminHandler) RejectDemand(c echo.Context) error {
	id, err := pathID(c, "id", "Demand")
	if err != nil {
		return response.Error(c, err)
	}

	var req rejectDemandRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return response.Error(c, err)
		}
		if err := c.Validate(&req); err != nil {
			return response.Error(c, err)
		}
	}

	demand, err := h.demandUseCase.Reject(c.Request().Context(), id, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, demand)
}

type updateOfferRequest struct {
	Price         *decimal.Decimal `json:"price"`
	EstimatedTime *string          `json:"estimatedTime" validate:"omitempty,max=100"`
	Message       *string          `json:"message" validate:"omitempty,max=1000"`
}

func (h *AdminHandler) UpdateOffer(c echo.Context) error {
	id, err := pathID(c, "id", "Offer")
	if err != nil {
		return response.Error(c, err)
	}

	var req updateOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	offer, err := h.offerUseCase.AdminUpdate(c.Request().Context(), id, usecase.AdminUpdateOfferInput{
		Price:         req.Price,
		EstimatedTime: req.EstimatedTime,
		Message:       req.Message,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, offer)
}

func (h *AdminHandler) DeleteOffer(c echo.Context) error {
	id, err := pathID(c, "id", "Offer")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.offerUseCase.AdminDelete(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Offer deleted"})
}

type broadcastRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=2000"`
	UserType string `json:"userType" validate:"omitempty,oneof=PROVIDER RECEIVER"`
}

func (h *AdminHandler) Broadcast(c echo.Context) error {
	var req broadcastRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	input := usecase.BroadcastInput{Title: req.Title, Message: req.Message}
	if req.UserType != "" {
		t := entity.UserType(req.UserType)
		input.UserType = &t
	}

	sent, err := h.notificationUseCase.Broadcast(c.Request().Context(), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"sent": sent})
}
