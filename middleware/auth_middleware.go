// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/clinora/clinora_backend/models"
	"github.com/labstack/echo/v4"
)

// RequireRole checks if the authenticated user has one of the allowed roles
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := ExtractRole(c)

			if role == "" {
				c.Logger().Error("Authentication failed: role not found in token")
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: role not found",
				})
			}

			for _, allowed := range allowedRoles {
				if role == allowed {
					return next(c)
				}
			}

			c.Logger().Errorf("Access denied for role: %s, allowed roles: %v", role, allowedRoles)
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your role",
			})
		}
	}
}

// RequireClinic ensures the caller is an owner bound to a clinic. Admin
// tokens carry no clinic id and tenant-scoped endpoints must not run with an
// empty one.
func RequireClinic() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ExtractClinicID(c) == "" {
				return c.JSON(http.StatusForbidden, models.Response{
					Status:  http.StatusForbidden,
					Message: "This endpoint requires a clinic account",
				})
			}
			return next(c)
		}
	}
}
