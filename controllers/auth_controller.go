package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/middleware"
	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"
	"github.com/clinora/clinora_backend/security"
	"github.com/clinora/clinora_backend/services"
	"github.com/clinora/clinora_backend/utils"
)

const otpTTL = 10 * time.Minute

// AuthController contains authentication logic
type AuthController struct {
	DB            *mongo.Database
	Redis         *redis.Client
	logger        *log.Logger
	users         repositories.UserRepository
	clinics       repositories.ClinicRepository
	registration  services.RegistrationService
	subscriptions services.SubscriptionService
	google        services.GoogleTokenVerifier
	loginAttempts map[string]struct {
		count       int
		lastAttempt time.Time
	}
	loginAttemptsMu sync.RWMutex
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Database, redisClient *redis.Client) *AuthController {
	users := repositories.NewUserRepository(db)
	clinics := repositories.NewClinicRepository(db)

	ac := &AuthController{
		DB:            db,
		Redis:         redisClient,
		logger:        log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
		users:         users,
		clinics:       clinics,
		registration:  services.NewRegistrationService(users, clinics),
		subscriptions: services.NewSubscriptionService(clinics),
		google:        services.NewGoogleTokenVerifier(),
		loginAttempts: make(map[string]struct {
			count       int
			lastAttempt time.Time
		}),
	}

	go ac.startLoginAttemptCleanupRoutine()

	return ac
}

// Register creates the clinic owner account and their clinic, then emails a
// verification code. The subscription starts in PENDING_VERIFICATION and no
// payment can begin until the email is verified.
func (ac *AuthController) Register(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.RegisterClinicRequest
	if !bindAndValidate(c, &req) {
		return nil
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return respondBadRequest(c, "Invalid email format")
	}
	req.Email = email

	if req.Phone != "" {
		phone, err := utils.SanitizePhone(req.Phone)
		if err != nil {
			return respondBadRequest(c, "Invalid phone number format")
		}
		req.Phone = phone
	}
	if req.ClinicPhone != "" {
		phone, err := utils.SanitizePhone(req.ClinicPhone)
		if err != nil {
			return respondBadRequest(c, "Invalid clinic phone number format")
		}
		req.ClinicPhone = phone
	}

	req.FullName = utils.SanitizeInput(req.FullName)
	req.ClinicName = utils.SanitizeInput(req.ClinicName)
	req.RegistrationID = utils.SanitizeInput(req.RegistrationID)

	if err := security.ValidatePasswordStrength(req.Password); err != nil {
		return respondBadRequest(c, err.Error())
	}

	user, clinic, err := ac.registration.RegisterClinic(ctx, req)
	if err != nil {
		return respondError(c, err)
	}

	if err := ac.issueOTP(ctx, user); err != nil {
		// The account exists; the user can still request a new code.
		ac.logger.Printf("Failed to issue OTP for %s: %v", user.Email, err)
	}

	user.Password = ""
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Registration successful. Check your email for the verification code.",
		Data: map[string]interface{}{
			"user":   user,
			"clinic": clinic,
		},
	})
}

// issueOTP stores a fresh code on the user and emails it.
func (ac *AuthController) issueOTP(ctx context.Context, user *models.User) error {
	otp, err := utils.GenerateSecureOTP()
	if err != nil {
		return err
	}

	err = ac.users.SetOTP(ctx, user.ID, models.OTPInfo{
		OTP:       otp,
		ExpiresAt: time.Now().Add(otpTTL),
	})
	if err != nil {
		return err
	}

	go func() {
		if err := utils.SendOTPEmail(user.Email, user.FullName, otp); err != nil {
			ac.logger.Printf("Failed to send OTP email to %s: %v", user.Email, err)
		}
	}()
	return nil
}

// VerifyOTP confirms the emailed code, marks the email verified and moves
// the clinic subscription to PENDING_PAYMENT. Verifying an already verified
// account succeeds again and just returns fresh tokens.
func (ac *AuthController) VerifyOTP(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.VerifyOTPRequest
	if !bindAndValidate(c, &req) {
		return nil
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return respondBadRequest(c, "Invalid email format")
	}

	user, err := ac.users.FindByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return respondError(c, services.NotFoundError(services.CodeUserNotFound, "no account for this email"))
		}
		return respondError(c, err)
	}

	if err := utils.ValidateOTPAttempts(user.ID.Hex(), ac.Redis); err != nil {
		if err == utils.ErrTooManyOTPAttempts {
			return c.JSON(http.StatusTooManyRequests, models.Response{
				Status:  http.StatusTooManyRequests,
				Message: "Too many verification attempts. Try again in an hour.",
				Data:    map[string]interface{}{"code": services.CodeTooManyAttempts},
			})
		}
		return respondError(c, err)
	}

	if user.EmailVerified {
		// A lost response or double tap lands here; answer as the first
		// call did.
		return ac.respondVerified(c, ctx, user)
	}

	if user.OTPInfo == nil {
		return respondError(c, services.ValidationError(services.CodeOTPInvalid, "no active verification code; request a new one"))
	}
	if time.Now().After(user.OTPInfo.ExpiresAt) {
		return respondError(c, services.ValidationError(services.CodeOTPExpired, "verification code expired; request a new one"))
	}
	if user.OTPInfo.OTP != req.OTP {
		return respondError(c, services.ValidationError(services.CodeOTPInvalid, "verification code does not match"))
	}

	if err := ac.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return respondError(c, err)
	}
	user.EmailVerified = true
	user.OTPInfo = nil
	utils.ClearOTPAttempts(user.ID.Hex(), ac.Redis)

	return ac.respondVerified(c, ctx, user)
}

// respondVerified finishes verification: the subscription transition is
// idempotent, so replays land on the same state.
func (ac *AuthController) respondVerified(c echo.Context, ctx context.Context, user *models.User) error {
	var clinic *models.Clinic
	if user.ClinicID != nil {
		var err error
		clinic, err = ac.subscriptions.MarkVerified(ctx, *user.ClinicID)
		if err != nil {
			return respondError(c, err)
		}
	}

	token, refreshToken, err := ac.issueTokens(user)
	if err != nil {
		return respondError(c, err)
	}

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Email verified",
		Data: models.LoginData{
			Token:        token,
			RefreshToken: refreshToken,
			User:         *user,
			Clinic:       clinic,
		},
	})
}

// ResendOTP issues a fresh verification code for an unverified account.
func (ac *AuthController) ResendOTP(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.ResendOTPRequest
	if !bindAndValidate(c, &req) {
		return nil
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return respondBadRequest(c, "Invalid email format")
	}

	user, err := ac.users.FindByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return respondError(c, services.NotFoundError(services.CodeUserNotFound, "no account for this email"))
		}
		return respondError(c, err)
	}

	if user.EmailVerified {
		return respondError(c, services.ConflictError(services.CodeValidationFailed, "email is already verified"))
	}

	if err := ac.issueOTP(ctx, user); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "A new verification code has been sent to your email",
	})
}

// Login authenticates with email and password. Unverified accounts are
// rejected with EMAIL_NOT_VERIFIED so clients can route to the OTP screen.
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if !bindAndValidate(c, &req) {
		return nil
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return respondBadRequest(c, "Invalid email format")
	}

	ac.loginAttemptsMu.RLock()
	attempts, exists := ac.loginAttempts[email]
	ac.loginAttemptsMu.RUnlock()

	if exists && attempts.count >= 5 && time.Since(attempts.lastAttempt) < 30*time.Minute {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many failed login attempts. Please try again later.",
			Data:    map[string]interface{}{"code": services.CodeTooManyAttempts},
		})
	}

	user, err := ac.users.FindByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ac.failLogin(c, email, attempts.count, exists)
		}
		return respondError(c, err)
	}

	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		return ac.failLogin(c, email, attempts.count, exists)
	}

	ac.loginAttemptsMu.Lock()
	delete(ac.loginAttempts, email)
	ac.loginAttemptsMu.Unlock()

	if !user.EmailVerified {
		return respondError(c, services.ForbiddenError(services.CodeEmailNotVerified, "verify your email before logging in"))
	}
	if !user.IsActive {
		return respondError(c, services.ForbiddenError(services.CodeInvalidCredentials, "account is disabled"))
	}

	token, refreshToken, err := ac.issueTokens(user)
	if err != nil {
		return respondError(c, err)
	}

	if err := ac.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Log the error but don't fail the login
		ac.logger.Printf("Failed to update last login for %s: %v", user.Email, err)
	}

	var clinic *models.Clinic
	if user.ClinicID != nil {
		clinic, err = ac.clinics.FindByID(ctx, *user.ClinicID)
		if err != nil && err != mongo.ErrNoDocuments {
			return respondError(c, err)
		}
	}

	user.Password = ""
	user.OTPInfo = nil
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginData{
			Token:        token,
			RefreshToken: refreshToken,
			User:         *user,
			Clinic:       clinic,
		},
	})
}

// failLogin counts the failed attempt and answers with the same message for
// unknown emails and wrong passwords.
func (ac *AuthController) failLogin(c echo.Context, email string, count int, exists bool) error {
	ac.loginAttemptsMu.Lock()
	if !exists {
		count = 0
	}
	ac.loginAttempts[email] = struct {
		count       int
		lastAttempt time.Time
	}{count: count + 1, lastAttempt: time.Now()}
	ac.loginAttemptsMu.Unlock()

	return c.JSON(http.StatusUnauthorized, models.Response{
		Status:  http.StatusUnauthorized,
		Message: "Invalid credentials",
		Data:    map[string]interface{}{"code": services.CodeInvalidCredentials},
	})
}

// issueTokens builds the JWT pair and allow-lists the refresh token.
func (ac *AuthController) issueTokens(user *models.User) (string, string, error) {
	clinicID := ""
	if user.ClinicID != nil {
		clinicID = user.ClinicID.Hex()
	}

	token, refreshToken, jti, err := middleware.GenerateJWT(user.ID.Hex(), clinicID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}

	if err := utils.StoreRefreshToken(ac.Redis, user.ID.Hex(), jti, middleware.RefreshTokenTTL); err != nil {
		return "", "", err
	}
	return token, refreshToken, nil
}

// RefreshToken rotates a refresh token: the old token is revoked and a new
// pair is issued. A revoked or unknown token is rejected.
func (ac *AuthController) RefreshToken(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.RefreshTokenRequest
	if !bindAndValidate(c, &req) {
		return nil
	}

	claims, err := middleware.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid refresh token",
		})
	}

	valid, err := utils.IsRefreshTokenValid(ac.Redis, claims.UserID, claims.Id)
	if err != nil {
		return respondError(c, err)
	}
	if !valid {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Refresh token has been revoked",
		})
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid refresh token",
		})
	}

	user, err := ac.users.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Account no longer exists",
			})
		}
		return respondError(c, err)
	}
	if !user.IsActive {
		return respondError(c, services.ForbiddenError(services.CodeInvalidCredentials, "account is disabled"))
	}

	if err := utils.RevokeRefreshToken(ac.Redis, claims.UserID, claims.Id); err != nil {
		ac.logger.Printf("Failed to revoke rotated refresh token for %s: %v", claims.UserID, err)
	}

	token, refreshToken, err := ac.issueTokens(user)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token refreshed",
		Data: map[string]interface{}{
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}

// GoogleLogin signs in an existing owner with a Google ID token. There is no
// implicit signup: clinic details are required, so unknown emails are told
// to register first. A Google-verified email also completes our own email
// verification.
func (ac *AuthController) GoogleLogin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.GoogleLoginRequest
	if !bindAndValidate(c, &req) {
		return nil
	}

	claims, err := ac.google.Verify(ctx, req.IDToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Google token verification failed",
		})
	}

	user, err := ac.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return respondError(c, services.NotFoundError(services.CodeUserNotFound, "no account for this Google email; register your clinic first"))
		}
		return respondError(c, err)
	}
	if !user.IsActive {
		return respondError(c, services.ForbiddenError(services.CodeInvalidCredentials, "account is disabled"))
	}

	if user.GoogleID == "" {
		if err := ac.users.SetGoogleID(ctx, user.ID, claims.Subject); err != nil {
			ac.logger.Printf("Failed to link Google account for %s: %v", user.Email, err)
		}
	}

	if req.FCMToken != "" {
		if err := ac.users.UpdateFCMToken(ctx, user.ID, req.FCMToken); err != nil {
			ac.logger.Printf("Failed to update FCM token for %s: %v", user.Email, err)
		}
	}

	if !user.EmailVerified {
		// Google vouches for the email; treat it as verified.
		if err := ac.users.MarkEmailVerified(ctx, user.ID); err != nil {
			return respondError(c, err)
		}
		user.EmailVerified = true
		user.OTPInfo = nil
	}

	if err := ac.users.UpdateLastLogin(ctx, user.ID); err != nil {
		ac.logger.Printf("Failed to update last login for %s: %v", user.Email, err)
	}

	return ac.respondVerified(c, ctx, user)
}

// Logout revokes the presented refresh token. Access tokens stay valid until
// they expire.
func (ac *AuthController) Logout(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		if claims, err := middleware.ParseRefreshToken(req.RefreshToken); err == nil && claims.UserID == userID {
			if err := utils.RevokeRefreshToken(ac.Redis, claims.UserID, claims.Id); err != nil {
				ac.logger.Printf("Failed to revoke refresh token for %s: %v", userID, err)
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out",
	})
}

func (ac *AuthController) startLoginAttemptCleanupRoutine() {
	for {
		time.Sleep(30 * time.Minute)
		ac.loginAttemptsMu.Lock()
		now := time.Now()
		for key, attempt := range ac.loginAttempts {
			if now.Sub(attempt.lastAttempt) > 30*time.Minute {
				delete(ac.loginAttempts, key)
			}
		}
		ac.loginAttemptsMu.Unlock()
	}
}
