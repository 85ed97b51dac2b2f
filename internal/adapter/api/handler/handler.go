package handler

import (
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/domain/entity"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/utils"
)

var (
	authHandler         *AuthHandler
	userHandler         *UserHandler
	categoryHandler     *CategoryHandler
	demandHandler       *DemandHandler
	offerHandler        *OfferHandler
	reviewHandler       *ReviewHandler
	notificationHandler *NotificationHandler
	charityHandler      *CharityHandler
	adminHandler        *AdminHandler
)

func Setup(
	otpService *usecase.OTPService,
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	categoryUseCase *usecase.CategoryUseCase,
	demandUseCase *usecase.DemandUseCase,
	offerUseCase *usecase.OfferUseCase,
	reviewUseCase *usecase.ReviewUseCase,
	notificationUseCase *usecase.NotificationUseCase,
	charityUseCase *usecase.CharityUseCase,
) {
	authHandler = NewAuthHandler(otpService, authUseCase)
	userHandler = NewUserHandler(userUseCase)
	categoryHandler = NewCategoryHandler(categoryUseCase)
	demandHandler = NewDemandHandler(demandUseCase)
	offerHandler = NewOfferHandler(offerUseCase)
	reviewHandler = NewReviewHandler(reviewUseCase)
	notificationHandler = NewNotificationHandler(notificationUseCase)
	charityHandler = NewCharityHandler(charityUseCase)
	adminHandler = NewAdminHandler(userUseCase, demandUseCase, offerUseCase, notificationUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetCategoryHandler() *CategoryHandler {
	return categoryHandler
}

func GetDemandHandler() *DemandHandler {
	return demandHandler
}

func GetOfferHandler() *OfferHandler {
	return offerHandler
}

func GetReviewHandler() *ReviewHandler {
	return reviewHandler
}

func GetNotificationHandler() *NotificationHandler {
	return notificationHandler
}

func GetCharityHandler() *CharityHandler {
	return charityHandler
}

func GetAdminHandler() *AdminHandler {
	return adminHandler
}

// actor reads the caller set by the auth middleware.
func actor(c echo.Context) usecase.Actor {
	uid, _ := c.Get(middleware.KeyUID).(string)
	userType, _ := c.Get(middleware.KeyUserType).(entity.UserType)
	isAdmin, _ := c.Get(middleware.KeyIsAdmin).(bool)
	return usecase.Actor{UserID: uid, UserType: userType, IsAdmin: isAdmin}
}

// pathID returns the named path parameter. Anything that is not a uuid
// cannot exist, so it is reported as not found.
func pathID(c echo.Context, param, resource string) (string, error) {
	id := c.Param(param)
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.NotFound(resource, nil)
	}
	return id, nil
}

func pagination(c echo.Context) (page, limit int) {
	p := utils.GetPaginationParams(c)
	return p.Page, p.PageSize
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.BadRequest(name+" must be true or false", nil)
	}
	return &v, nil
}

func queryFloat(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.BadRequest(name+" must be a number", nil)
	}
	return &v, nil
}

func queryUUID(c echo.Context, name string) (string, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return "", nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", errors.BadRequest(name+" must be a valid id", nil)
	}
	return raw, nil
}

func queryUserType(c echo.Context) (*entity.UserType, error) {
	raw := c.QueryParam("userType")
	if raw == "" {
		return nil, nil
	}
	t := entity.UserType(raw)
	if !t.Valid() {
		return nil, errors.BadRequest("userType must be PROVIDER or RECEIVER", nil)
	}
	return &t, nil
}
