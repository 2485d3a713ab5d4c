// controllers/password_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"
	"github.com/clinora/clinora_backend/security"
	"github.com/clinora/clinora_backend/services"
	"github.com/clinora/clinora_backend/utils"
)

// PasswordController handles the forgot/reset password flow. Reset codes
// live in redis with a 15 minute TTL; the user document is only touched
// once the reset completes.
type PasswordController struct {
	DB     *mongo.Database
	Redis  *redis.Client
	logger *log.Logger
	users  repositories.UserRepository
}

// NewPasswordController creates a new password controller
func NewPasswordController(db *mongo.Database, redisClient *redis.Client) *PasswordController {
	return &PasswordController{
		DB:     db,
		Redis:  redisClient,
		logger: log.New(os.Stdout, "[PASSWORD] ", log.LstdFlags),
		users:  repositories.NewUserRepository(db),
	}
}

// ForgotPassword emails a reset code to the account's address. Requesting
// again overwrites the previous code.
func (pc *PasswordController) ForgotPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.ForgotPasswordRequest
	if !bindAndValidate(c, &req) {
		return nil
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return respondBadRequest(c, "Invalid email format")
	}

	user, err := pc.users.FindByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return respondError(c, services.NotFoundError(services.CodeUserNotFound, "no account for this email"))
		}
		return respondError(c, err)
	}

	otp, err := utils.GenerateSecureOTP()
	if err != nil {
		return respondError(c, err)
	}
	if err := utils.StorePasswordResetCode(user.ID.Hex(), otp, pc.Redis); err != nil {
		return respondError(c, err)
	}

	go func() {
		if err := utils.SendPasswordResetEmail(user.Email, user.FullName, otp); err != nil {
			pc.logger.Printf("Failed to send password reset email to %s: %v", user.Email, err)
		}
	}()

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "A password reset code has been sent to your email",
		Data: map[string]interface{}{
			"email": maskEmail(user.Email),
		},
	})
}

// ResetPassword redeems the emailed code for a new password. Every open
// session is revoked, so all devices have to log in again.
func (pc *PasswordController) ResetPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.ResetPasswordRequest
	if !bindAndValidate(c, &req) {
		return nil
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return respondBadRequest(c, "Invalid email format")
	}

	if err := security.ValidatePasswordStrength(req.NewPassword); err != nil {
		return respondBadRequest(c, err.Error())
	}

	user, err := pc.users.FindByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return respondError(c, services.NotFoundError(services.CodeUserNotFound, "no account for this email"))
		}
		return respondError(c, err)
	}

	// Reset attempts draw from the same hourly budget as email
	// verification.
	if err := utils.ValidateOTPAttempts(user.ID.Hex(), pc.Redis); err != nil {
		if err == utils.ErrTooManyOTPAttempts {
			return c.JSON(http.StatusTooManyRequests, models.Response{
				Status:  http.StatusTooManyRequests,
				Message: "Too many reset attempts. Try again in an hour.",
				Data:    map[string]interface{}{"code": services.CodeTooManyAttempts},
			})
		}
		return respondError(c, err)
	}

	code, err := utils.GetPasswordResetCode(user.ID.Hex(), pc.Redis)
	if err != nil {
		return respondError(c, err)
	}
	if code == "" {
		return respondError(c, services.ValidationError(services.CodeOTPExpired, "reset code expired or never requested; request a new one"))
	}
	if code != req.OTP {
		return respondError(c, services.ValidationError(services.CodeOTPInvalid, "reset code does not match"))
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return respondError(c, err)
	}
	if err := pc.users.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return respondError(c, err)
	}

	utils.ClearPasswordResetCode(user.ID.Hex(), pc.Redis)
	utils.ClearOTPAttempts(user.ID.Hex(), pc.Redis)
	if err := utils.RevokeAllRefreshTokens(pc.Redis, user.ID.Hex()); err != nil {
		pc.logger.Printf("Failed to revoke sessions for %s after password reset: %v", user.Email, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password reset successfully. Log in with your new password.",
	})
}

// maskEmail partially masks an email address for privacy
func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	name := parts[0]
	domain := parts[1]

	if len(name) <= 2 {
		return name[:1] + "***@" + domain
	}

	return name[:2] + strings.Repeat("*", len(name)-2) + "@" + domain
}
