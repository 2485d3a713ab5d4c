// controllers/payment_controller.go
package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"
	"github.com/clinora/clinora_backend/services"
	"github.com/clinora/clinora_backend/utils"
	"github.com/clinora/clinora_backend/websocket"
)

// razorpayWebhookPayload is the wire shape the provider posts. Only the
// fields the handler acts on are mapped.
type razorpayWebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentController drives checkout, confirmation and the provider webhook.
type PaymentController struct {
	DB      *mongo.Database
	logger  *log.Logger
	ledger  services.PaymentLedger
	gateway *services.RazorpayService
	users   repositories.UserRepository
	hub     *websocket.Hub
}

// NewPaymentController creates a new payment controller
func NewPaymentController(db *mongo.Database, ledger services.PaymentLedger, gateway *services.RazorpayService, hub *websocket.Hub) *PaymentController {
	return &PaymentController{
		DB:      db,
		logger:  log.New(os.Stdout, "[PAYMENT] ", log.LstdFlags),
		ledger:  ledger,
		gateway: gateway,
		users:   repositories.NewUserRepository(db),
		hub:     hub,
	}
}

// Checkout opens a provider order for a plan purchase. The response carries
// everything the client needs to launch the provider checkout; the amount is
// the catalog price, not anything the client sent.
func (pc *PaymentController) Checkout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clinicID, err := utils.GetClinicIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return nil
	}

	data, err := pc.ledger.BeginProviderPayment(ctx, clinicID, req.PlanCode, req.BillingCycle)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Checkout created successfully",
		Data:    data,
	})
}

// ConfirmPayment settles a checkout from the client callback and reports the
// resulting subscription. Repeats of the same confirmation succeed without
// doing the work again.
func (pc *PaymentController) ConfirmPayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clinicID, err := utils.GetClinicIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.ConfirmPaymentRequest
	if !bindAndValidate(c, &req) {
		return nil
	}

	result, err := pc.ledger.ConfirmProviderPayment(ctx, clinicID, req)
	if err != nil {
		return respondError(c, err)
	}

	message := "Payment confirmed and subscription activated"
	if result.AlreadyProcessed {
		message = "Payment was already processed"
	} else {
		pc.announceCompleted(result)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
		Data: map[string]interface{}{
			"payment":      result.Record,
			"subscription": result.Clinic.Subscription,
		},
	})
}

// SubmitManualPayment records an offline bank transfer for admin review.
func (pc *PaymentController) SubmitManualPayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, err := utils.GetClinicIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.ManualPaymentRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	req.TransactionRef = utils.SanitizeInput(req.TransactionRef)

	record, err := pc.ledger.SubmitManualPayment(ctx, clinicID, req.PlanCode, req.BillingCycle, req.TransactionRef)
	if err != nil {
		return respondError(c, err)
	}

	pc.hub.NotifyManualPaymentPending(clinicID, map[string]interface{}{
		"paymentId": record.ID.Hex(),
		"planCode":  record.PlanCode,
		"amount":    utils.FormatAmount(record.AmountMinor, record.Currency),
	})

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Payment submitted for review. Your subscription activates once an administrator approves it.",
		Data:    record,
	})
}

// GetPaymentHistory lists the clinic's own payment records, newest first.
func (pc *PaymentController) GetPaymentHistory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, err := utils.GetClinicIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)

	payments, total, err := pc.ledger.ListClinicPayments(ctx, clinicID, page, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment history retrieved successfully",
		Data: map[string]interface{}{
			"payments": payments,
			"total":    total,
		},
	})
}

// HandleProviderWebhook receives provider events. The raw body signature is
// checked before anything is parsed; a bad signature is rejected with 401.
// Events for already-settled orders answer 200 so the provider stops
// retrying them.
func (pc *PaymentController) HandleProviderWebhook(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unreadable body",
		})
	}

	signature := c.Request().Header.Get("X-Razorpay-Signature")
	if !pc.gateway.VerifyWebhookSignature(body, signature) {
		pc.logger.Printf("WARNING: webhook signature mismatch from %s", c.RealIP())
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid webhook signature",
		})
	}

	var payload razorpayWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Malformed webhook payload",
		})
	}

	entity := payload.Payload.Payment.Entity
	switch payload.Event {
	case "payment.captured", "order.paid":
		result, err := pc.ledger.ConfirmWebhookPayment(ctx, entity.OrderID, entity.ID)
		if err != nil {
			if _, ok := services.AsDomainError(err); ok {
				// Unknown order or an order that already reached a final
				// state. Nothing to redo; stop the provider's retries.
				pc.logger.Printf("Webhook %s for order %s ignored: %v", payload.Event, entity.OrderID, err)
				return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
			}
			pc.logger.Printf("Webhook %s for order %s failed: %v", payload.Event, entity.OrderID, err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"status": "error"})
		}
		if !result.AlreadyProcessed {
			pc.announceCompleted(result)
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})

	case "payment.failed":
		if err := pc.ledger.FailWebhookPayment(ctx, entity.OrderID); err != nil {
			if _, ok := services.AsDomainError(err); ok {
				return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
			}
			pc.logger.Printf("Webhook payment.failed for order %s failed: %v", entity.OrderID, err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"status": "error"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})

	default:
		// Unsubscribed event types still get a 200.
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}
}

// announceCompleted fans a fresh completion out to the owner (email, in-app,
// push) and the admin dashboard. Runs in the background; delivery problems
// never affect the payment response.
func (pc *PaymentController) announceCompleted(result *services.ConfirmResult) {
	record := *result.Record
	clinic := *result.Clinic

	pc.hub.NotifyPaymentCompleted(clinic.ID, map[string]interface{}{
		"paymentId": record.ID.Hex(),
		"planCode":  record.PlanCode,
		"amount":    utils.FormatAmount(record.AmountMinor, record.Currency),
		"method":    record.Method,
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		owner, err := pc.users.FindByID(ctx, clinic.UserID)
		if err != nil {
			pc.logger.Printf("Failed to load owner for receipt, clinic %s: %v", clinic.ID.Hex(), err)
			return
		}

		utils.NotifyBillingEvent(pc.DB, owner.ID,
			"Subscription activated",
			"Your "+record.PlanCode+" subscription is now active.",
			models.NotificationSubscriptionActivated,
			map[string]interface{}{
				"paymentId": record.ID.Hex(),
				"planCode":  record.PlanCode,
			})

		utils.SendPaymentReceiptEmail(owner.Email, owner.FullName, record.PlanCode,
			record.AmountMinor, record.Currency, record.Receipt)
	}()
}
