package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/controllers"
	"github.com/clinora/clinora_backend/middleware"
)

// RegisterNotificationRoutes sets up the in-app notification feed. The feed
// is per-user, so owners and admins share the same routes.
func RegisterNotificationRoutes(e *echo.Echo, db *mongo.Database) {
	notificationController := controllers.NewNotificationController(db)

	notifications := e.Group("/api/notifications")
	notifications.Use(middleware.JWTMiddleware())

	notifications.GET("", notificationController.GetNotifications)
	notifications.POST("/:id/read", notificationController.MarkNotificationRead)
	notifications.POST("/read-all", notificationController.MarkAllNotificationsRead)
	notifications.PUT("/fcm-token", notificationController.UpdateFCMToken)
}
