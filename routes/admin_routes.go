package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/controllers"
	"github.com/clinora/clinora_backend/middleware"
	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/services"
	"github.com/clinora/clinora_backend/websocket"
)

// RegisterAdminRoutes sets up all back-office routes
func RegisterAdminRoutes(e *echo.Echo, db *mongo.Database, catalog services.PlanCatalog, ledger services.PaymentLedger, hub *websocket.Hub) {
	adminController := controllers.NewAdminController(db, catalog, ledger, hub)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	// Plan management
	admin.GET("/plans", adminController.GetPlans)
	admin.POST("/plans", adminController.CreatePlan)
	admin.PUT("/plans/:code", adminController.UpdatePlan)
	admin.DELETE("/plans/:code", adminController.ArchivePlan)

	// Manual payment review
	admin.GET("/payments/manual/pending", adminController.GetPendingManualPayments)
	admin.POST("/payments/manual/:id/approve", adminController.ApproveManualPayment)
	admin.POST("/payments/manual/:id/reject", adminController.RejectManualPayment)

	// Tenant administration
	admin.GET("/clinics", adminController.GetClinics)
	admin.GET("/clinics/:id", adminController.GetClinic)
	admin.POST("/clinics/:id/cancel", adminController.CancelClinicSubscription)
	admin.POST("/clinics/:id/past-due", adminController.MarkClinicPastDue)

	// Live billing feed
	admin.GET("/ws/billing", adminController.HandleBillingWS)
}
