package middleware

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/domain/entity"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/response"
)

type AdminMiddleware struct{}

func NewAdminMiddleware() *AdminMiddleware {
	return &AdminMiddleware{}
}

// AdminOnly must run after Authenticate.
func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get(KeyUID).(string); !ok {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}
		if isAdmin, _ := c.Get(KeyIsAdmin).(bool); !isAdmin {
			return response.Error(c, errors.Forbidden("Admin privileges required", nil))
		}
		return next(c)
	}
}

// RequireUserType rejects callers of any other user type. Admins pass.
func RequireUserType(userType entity.UserType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isAdmin, _ := c.Get(KeyIsAdmin).(bool); isAdmin {
				return next(c)
			}
			if t, _ := c.Get(KeyUserType).(entity.UserType); t != userType {
				return response.Error(c, errors.Forbidden("This action is only available to "+string(userType)+" accounts", nil))
			}
			return next(c)
		}
	}
}
