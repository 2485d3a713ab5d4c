package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/controllers"
	"github.com/clinora/clinora_backend/middleware"
)

// RegisterAuthRoutes sets up registration, verification and session routes
func RegisterAuthRoutes(e *echo.Echo, db *mongo.Database, redisClient *redis.Client) {
	authController := controllers.NewAuthController(db, redisClient)
	passwordController := controllers.NewPasswordController(db, redisClient)

	// Public authentication routes
	e.POST("/api/auth/register", authController.Register)
	e.POST("/api/auth/verify-otp", authController.VerifyOTP)
	e.POST("/api/auth/resend-otp", authController.ResendOTP)
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/google", authController.GoogleLogin)
	e.POST("/api/auth/refresh-token", authController.RefreshToken)
	e.POST("/api/auth/forgot-password", passwordController.ForgotPassword)
	e.POST("/api/auth/reset-password", passwordController.ResetPassword)

	// Logout needs the access token so the refresh session can be matched
	// to its owner before revocation.
	protected := e.Group("/api/auth")
	protected.Use(middleware.JWTMiddleware())
	protected.POST("/logout", authController.Logout)
}
