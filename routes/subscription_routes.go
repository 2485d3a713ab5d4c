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

// RegisterSubscriptionRoutes sets up the plan listing, subscription status
// and payment routes
func RegisterSubscriptionRoutes(e *echo.Echo, db *mongo.Database, catalog services.PlanCatalog, ledger services.PaymentLedger, gateway *services.RazorpayService, hub *websocket.Hub) {
	subscriptionController := controllers.NewSubscriptionController(db, catalog, ledger)
	paymentController := controllers.NewPaymentController(db, ledger, gateway, hub)

	// Plans are browsable before signup
	e.GET("/api/plans", subscriptionController.GetPlans)

	// The provider calls this one; it authenticates with its webhook
	// signature, not a JWT.
	e.POST("/api/payments/webhook", paymentController.HandleProviderWebhook)

	// Clinic owner routes
	owner := e.Group("/api")
	owner.Use(middleware.JWTMiddleware())
	owner.Use(middleware.RequireRole(models.RoleOwner))
	owner.Use(middleware.RequireClinic())

	owner.GET("/subscription", subscriptionController.GetSubscription)
	owner.GET("/subscription/checkout/:orderId/qr", subscriptionController.GetCheckoutQR)

	owner.POST("/payments/checkout", paymentController.Checkout)
	owner.POST("/payments/confirm", paymentController.ConfirmPayment)
	owner.POST("/payments/manual", paymentController.SubmitManualPayment)
	owner.GET("/payments/history", paymentController.GetPaymentHistory)
}
