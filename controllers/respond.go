package controllers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/services"
)

// respondError turns a service error into the JSON envelope. Domain errors
// carry their own status, stable code and safe message; anything else is a
// 500 with the cause kept in the logs.
func respondError(c echo.Context, err error) error {
	if de, ok := services.AsDomainError(err); ok {
		status := services.HTTPStatus(err)
		data := map[string]interface{}{"code": de.Code}
		if len(de.Meta) > 0 {
			data["meta"] = de.Meta
		}
		return c.JSON(status, models.Response{
			Status:  status,
			Message: de.Message,
			Data:    data,
		})
	}

	log.Printf("Unhandled error on %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
	})
}

func respondBadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, models.Response{
		Status:  http.StatusBadRequest,
		Message: message,
		Data:    map[string]interface{}{"code": services.CodeValidationFailed},
	})
}

// bindAndValidate decodes the body into req and runs struct validation.
// On failure it writes the 400 response and returns false.
func bindAndValidate(c echo.Context, req interface{}) bool {
	if err := c.Bind(req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return false
	}
	if err := c.Validate(req); err != nil {
		respondBadRequest(c, err.Error())
		return false
	}
	return true
}
