// controllers/subscription_controller.go
package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"
	"github.com/clinora/clinora_backend/services"
	"github.com/clinora/clinora_backend/utils"
)

// SubscriptionController serves the plan catalog and the clinic's own
// subscription view.
type SubscriptionController struct {
	DB      *mongo.Database
	logger  *log.Logger
	catalog services.PlanCatalog
	clinics repositories.ClinicRepository
	doctors repositories.DoctorRepository
	ledger  services.PaymentLedger
}

// NewSubscriptionController creates a new subscription controller
func NewSubscriptionController(db *mongo.Database, catalog services.PlanCatalog, ledger services.PaymentLedger) *SubscriptionController {
	return &SubscriptionController{
		DB:      db,
		logger:  log.New(os.Stdout, "[SUBSCRIPTION] ", log.LstdFlags),
		catalog: catalog,
		clinics: repositories.NewClinicRepository(db),
		doctors: repositories.NewDoctorRepository(db),
		ledger:  ledger,
	}
}

// GetPlans lists the plans a clinic can subscribe to. Archived plans are
// not offered.
func (sc *SubscriptionController) GetPlans(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	plans, err := sc.catalog.ListActive(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plans retrieved successfully",
		Data:    plans,
	})
}

// GetSubscription returns the caller's subscription together with the plan
// it points at and the current seat usage.
func (sc *SubscriptionController) GetSubscription(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, err := utils.GetClinicIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	clinic, err := sc.clinics.FindByID(ctx, clinicID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return respondError(c, services.NotFoundError(services.CodeClinicNotFound, "clinic not found"))
		}
		return respondError(c, err)
	}

	data := map[string]interface{}{
		"subscription": clinic.Subscription,
	}

	if clinic.Subscription.PlanCode != "" {
		// The plan may have been archived since activation; the clinic
		// keeps it either way, so the lookup ignores isActive.
		plan, err := sc.catalog.ListAll(ctx)
		if err == nil {
			for i := range plan {
				if plan[i].Code == clinic.Subscription.PlanCode {
					data["plan"] = plan[i]

					seats, err := sc.doctors.CountActive(ctx, clinicID)
					if err == nil {
						usage := map[string]interface{}{"used": seats}
						if !plan[i].Unlimited() {
							usage["limit"] = plan[i].DoctorLimit
						}
						data["seats"] = usage
					}
					break
				}
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Subscription retrieved successfully",
		Data:    data,
	})
}

// GetCheckoutQR renders a QR code that opens the pending checkout on a
// phone. Only the clinic that owns the pending order can fetch it.
func (sc *SubscriptionController) GetCheckoutQR(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, err := utils.GetClinicIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	orderID := c.Param("orderId")
	if orderID == "" {
		return respondBadRequest(c, "Order ID is required")
	}

	record, err := sc.ledger.PendingOrderForClinic(ctx, clinicID, orderID)
	if err != nil {
		return respondError(c, err)
	}

	qrCode, err := sc.generateCheckoutQRCode(orderID)
	if err != nil {
		sc.logger.Printf("Failed to generate QR for order %s: %v", orderID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Checkout QR code generated successfully",
		Data: map[string]interface{}{
			"qrCode":      qrCode,
			"orderId":     orderID,
			"amountMinor": record.AmountMinor,
			"currency":    record.Currency,
			"amount":      utils.FormatAmount(record.AmountMinor, record.Currency),
		},
	})
}

// generateCheckoutQRCode creates a QR code image for a pending checkout
func (sc *SubscriptionController) generateCheckoutQRCode(orderID string) (string, error) {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "https://app.clinora.health"
	}
	content := fmt.Sprintf("%s/checkout?order=%s", appURL, orderID)

	// Generate the QR code
	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	// Scale the QR code to a reasonable size (300x300 pixels)
	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	// Convert the QR code to a PNG image
	var buf bytes.Buffer
	err = png.Encode(&buf, qrCode)
	if err != nil {
		return "", err
	}

	// Convert to base64 for embedding in responses
	base64QR := base64.StdEncoding.EncodeToString(buf.Bytes())
	return "data:image/png;base64," + base64QR, nil
}
