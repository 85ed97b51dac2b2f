package router

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/handler"
	"servicemarket/internal/adapter/api/middleware"
)

// SetupAuthRouter mounts the public login routes. Per-phone OTP limits are
// enforced by the OTP service; this layer caps requests per client IP.
func SetupAuthRouter(api *echo.Group, limiter middleware.Limiter) {
	authHandler := handler.GetAuthHandler()

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit(limiter, "auth", middleware.ByIP))

	auth.POST("/send-otp", authHandler.SendOTP)
	auth.POST("/verify-otp", authHandler.VerifyOTP)
	auth.POST("/admin/login", authHandler.AdminLogin)
}
