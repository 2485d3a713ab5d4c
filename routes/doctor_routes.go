package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/controllers"
	"github.com/clinora/clinora_backend/middleware"
	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/services"
)

// RegisterDoctorRoutes sets up the doctor roster routes
func RegisterDoctorRoutes(e *echo.Echo, db *mongo.Database, catalog services.PlanCatalog) {
	doctorController := controllers.NewDoctorController(db, catalog)

	doctors := e.Group("/api/doctors")
	doctors.Use(middleware.JWTMiddleware())
	doctors.Use(middleware.RequireRole(models.RoleOwner))
	doctors.Use(middleware.RequireClinic())

	doctors.POST("", doctorController.CreateDoctor)
	doctors.GET("", doctorController.GetDoctors)
	doctors.GET("/:id", doctorController.GetDoctor)
	doctors.PUT("/:id", doctorController.UpdateDoctor)
	doctors.DELETE("/:id", doctorController.DeleteDoctor)
}
