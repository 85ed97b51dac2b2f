package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/infrastructure/token"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/response"
)

// Context keys set by Authenticate.
const (
	KeyUID      = "uid"
	KeyUserType = "userType"
	KeyIsAdmin  = "isAdmin"
)

type TokenParser interface {
	Parse(raw string) (*token.Claims, error)
}

type AuthMiddleware struct {
	tokens   TokenParser
	userRepo repository.UserRepository
}

func NewAuthMiddleware(tokens TokenParser, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

// Authenticate resolves the bearer token to an active user. Role flags are
// taken from the stored user so demotions apply without a new token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		user, err := m.UserFromToken(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(KeyUID, user.ID)
		c.Set(KeyUserType, user.UserType)
		c.Set(KeyIsAdmin, user.IsAdmin)
		return next(c)
	}
}

// UserFromToken verifies raw and loads its user. Used directly by the
// websocket endpoint, which takes the token as a query parameter.
func (m *AuthMiddleware) UserFromToken(ctx context.Context, raw string) (*entity.User, error) {
	claims, err := m.tokens.Parse(raw)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}

	user, err := m.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, errors.Unauthorized("Invalid or expired token", err)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.Forbidden("Account is disabled", nil)
	}
	return user, nil
}
