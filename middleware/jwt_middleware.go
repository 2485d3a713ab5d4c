// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Token lifetimes. Refresh tokens are additionally allow-listed in redis by
// their jti, so logout can revoke them before expiry.
const (
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

const tokenTypeRefresh = "refresh"

// JwtCustomClaims for JWT token
type JwtCustomClaims struct {
	UserID    string `json:"userId"`
	ClinicID  string `json:"clinicId,omitempty"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"tokenType,omitempty"`
	jwt.StandardClaims
}

// GetJWTSecret returns the JWT secret from environment variables
func GetJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
	return secret
}

// JWTMiddleware returns a configured JWT middleware
func JWTMiddleware() echo.MiddlewareFunc {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("Warning: JWT_SECRET environment variable is not set")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "JWT configuration error")
			}
		}
	}

	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey: []byte(secret),
		Claims:     &JwtCustomClaims{},
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)
			claims := user.Claims.(*JwtCustomClaims)

			// Refresh tokens only work at the refresh endpoint, never as an
			// access token.
			if claims.TokenType == tokenTypeRefresh {
				c.Error(echo.NewHTTPError(echo.ErrUnauthorized.Code, "Refresh token cannot be used for API access"))
				return
			}

			c.Set("userId", claims.UserID)
			c.Set("clinicId", claims.ClinicID)
			c.Set("email", claims.Email)
			c.Set("role", claims.Role)
		},
		ErrorHandler: func(err error) error {
			log.Printf("JWT middleware error: %v", err)
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
		},
	})
}

// GenerateJWT generates an access token plus a refresh token. The refresh
// token's jti is returned so the caller can allow-list it.
func GenerateJWT(userID, clinicID, email, role string) (accessToken, refreshToken, refreshJTI string, err error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", "", "", errors.New("JWT_SECRET environment variable is required")
	}

	now := time.Now()
	claims := &JwtCustomClaims{
		UserID:   userID,
		ClinicID: clinicID,
		Email:    email,
		Role:     role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(AccessTokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err = token.SignedString([]byte(secret))
	if err != nil {
		return "", "", "", err
	}

	refreshJTI = uuid.NewString()
	refreshClaims := &JwtCustomClaims{
		UserID:    userID,
		ClinicID:  clinicID,
		Email:     email,
		Role:      role,
		TokenType: tokenTypeRefresh,
		StandardClaims: jwt.StandardClaims{
			Id:        refreshJTI,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(RefreshTokenTTL).Unix(),
		},
	}
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshToken, err = refresh.SignedString([]byte(secret))
	if err != nil {
		return "", "", "", err
	}

	return accessToken, refreshToken, refreshJTI, nil
}

// ParseRefreshToken validates a refresh token string and returns its claims
func ParseRefreshToken(tokenString string) (*JwtCustomClaims, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired refresh token")
	}
	if claims.TokenType != tokenTypeRefresh || claims.Id == "" {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}

// GetUserFromToken extracts user information from JWT token
func GetUserFromToken(c echo.Context) *JwtCustomClaims {
	user := c.Get("user")
	if user == nil {
		return nil
	}

	token, ok := user.(*jwt.Token)
	if !ok {
		return nil
	}

	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return nil
	}

	return claims
}

func ExtractUserID(c echo.Context) (string, error) {
	if userID, ok := c.Get("userId").(string); ok && userID != "" {
		return userID, nil
	}
	claims := GetUserFromToken(c)
	if claims == nil || claims.UserID == "" {
		return "", errors.New("invalid token")
	}
	return claims.UserID, nil
}

// ExtractRole safely extracts the user role from the context
func ExtractRole(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok && role != "" {
		return role
	}
	claims := GetUserFromToken(c)
	if claims != nil {
		return claims.Role
	}
	return ""
}

// ExtractClinicID returns the caller's clinic id, empty for admins
func ExtractClinicID(c echo.Context) string {
	if clinicID, ok := c.Get("clinicId").(string); ok && clinicID != "" {
		return clinicID
	}
	claims := GetUserFromToken(c)
	if claims != nil {
		return claims.ClinicID
	}
	return ""
}
