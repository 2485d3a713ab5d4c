package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/repositories"
	"github.com/clinora/clinora_backend/services"
	"github.com/clinora/clinora_backend/websocket"
)

// SetupRoutes wires the service layer once and hands it to the route groups.
// Controllers that share a service share the same instance.
func SetupRoutes(e *echo.Echo, db *mongo.Database, redisClient *redis.Client, hub *websocket.Hub) {
	plans := repositories.NewPlanRepository(db)
	clinics := repositories.NewClinicRepository(db)
	payments := repositories.NewPaymentRepository(db)

	catalog := services.NewPlanCatalog(plans)
	subscriptions := services.NewSubscriptionService(clinics)
	gateway := services.NewRazorpayService()
	ledger := services.NewPaymentLedger(payments, clinics, catalog, subscriptions, gateway)

	RegisterAuthRoutes(e, db, redisClient)
	RegisterSubscriptionRoutes(e, db, catalog, ledger, gateway, hub)
	RegisterDoctorRoutes(e, db, catalog)
	RegisterAdminRoutes(e, db, catalog, ledger, hub)
	RegisterNotificationRoutes(e, db)
}
