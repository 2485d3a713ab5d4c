package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"
	"github.com/clinora/clinora_backend/services"
	"github.com/clinora/clinora_backend/utils"
	"github.com/clinora/clinora_backend/websocket"
)

// AdminController covers the back-office surface: plan management, manual
// payment review, tenant administration and the live billing feed. Routes
// are registered behind the admin role.
type AdminController struct {
	DB            *mongo.Database
	logger        *log.Logger
	catalog       services.PlanCatalog
	ledger        services.PaymentLedger
	subscriptions services.SubscriptionService
	clinics       repositories.ClinicRepository
	users         repositories.UserRepository
	hub           *websocket.Hub
}

// NewAdminController creates a new admin controller
func NewAdminController(db *mongo.Database, catalog services.PlanCatalog, ledger services.PaymentLedger, hub *websocket.Hub) *AdminController {
	clinics := repositories.NewClinicRepository(db)

	return &AdminController{
		DB:            db,
		logger:        log.New(os.Stdout, "[ADMIN] ", log.LstdFlags),
		catalog:       catalog,
		ledger:        ledger,
		subscriptions: services.NewSubscriptionService(clinics),
		clinics:       clinics,
		users:         repositories.NewUserRepository(db),
		hub:           hub,
	}
}

// --- Plan management ---

// GetPlans lists every plan, archived ones included.
func (adc *AdminController) GetPlans(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	plans, err := adc.catalog.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plans retrieved successfully",
		Data:    plans,
	})
}

// CreatePlan registers a new plan under a unique code.
func (adc *AdminController) CreatePlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.PlanRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	req.Name = utils.SanitizeInput(req.Name)
	req.Features = utils.SanitizeStringArray(req.Features)

	plan, err := adc.catalog.CreatePlan(ctx, req)
	if err != nil {
		return respondError(c, err)
	}

	adc.logger.Printf("Plan %s created", plan.Code)
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Plan created successfully",
		Data:    plan,
	})
}

// UpdatePlan edits a plan in place. The code itself is immutable; clinics
// reference plans by code.
func (adc *AdminController) UpdatePlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code := c.Param("code")

	var req models.PlanRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	if req.Code != "" && req.Code != code {
		return respondBadRequest(c, "Plan code cannot be changed")
	}
	req.Name = utils.SanitizeInput(req.Name)
	req.Features = utils.SanitizeStringArray(req.Features)

	plan, err := adc.catalog.UpdatePlan(ctx, code, req)
	if err != nil {
		return respondError(c, err)
	}

	adc.logger.Printf("Plan %s updated", plan.Code)
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plan updated successfully",
		Data:    plan,
	})
}

// ArchivePlan takes a plan off sale. Existing subscriptions keep running on
// it; it just stops being offered.
func (adc *AdminController) ArchivePlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	plan, err := adc.catalog.ArchivePlan(ctx, c.Param("code"))
	if err != nil {
		return respondError(c, err)
	}

	adc.logger.Printf("Plan %s archived", plan.Code)
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plan archived successfully",
		Data:    plan,
	})
}

// --- Manual payment review ---

// GetPendingManualPayments lists bank transfers waiting for review, oldest
// first.
func (adc *AdminController) GetPendingManualPayments(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	payments, err := adc.ledger.ListPendingManualPayments(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending manual payments retrieved successfully",
		Data:    payments,
	})
}

// ApproveManualPayment completes a pending transfer and activates the
// clinic's subscription. Approving twice is a safe no-op.
func (adc *AdminController) ApproveManualPayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adminID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	paymentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return respondBadRequest(c, "Invalid payment ID")
	}

	result, err := adc.ledger.ApproveManualPayment(ctx, adminID, paymentID)
	if err != nil {
		return respondError(c, err)
	}

	message := "Payment approved and subscription activated"
	if result.AlreadyProcessed {
		message = "Payment was already approved"
	} else {
		adc.hub.Broadcast(websocket.BillingEvent{
			Type:     websocket.EventManualPaymentReviewed,
			Message:  "Manual payment approved",
			ClinicID: result.Clinic.ID.Hex(),
			Data:     map[string]interface{}{"paymentId": paymentID.Hex(), "approved": true},
		})
		go adc.notifyManualReview(result.Record, true, "")
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

// RejectManualPayment closes a pending transfer with a reason. The
// subscription is untouched.
func (adc *AdminController) RejectManualPayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adminID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	paymentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return respondBadRequest(c, "Invalid payment ID")
	}

	var req models.RejectPaymentRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	req.Reason = utils.SanitizeInput(req.Reason)

	record, err := adc.ledger.RejectManualPayment(ctx, adminID, paymentID, req.Reason)
	if err != nil {
		return respondError(c, err)
	}

	adc.hub.Broadcast(websocket.BillingEvent{
		Type:     websocket.EventManualPaymentReviewed,
		Message:  "Manual payment rejected",
		ClinicID: record.ClinicID.Hex(),
		Data:     map[string]interface{}{"paymentId": paymentID.Hex(), "approved": false},
	})
	go adc.notifyManualReview(record, false, req.Reason)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment rejected",
		Data:    record,
	})
}

// notifyManualReview tells the clinic owner how their transfer was decided.
func (adc *AdminController) notifyManualReview(record *models.PaymentRecord, approved bool, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinic, err := adc.clinics.FindByID(ctx, record.ClinicID)
	if err != nil {
		adc.logger.Printf("Failed to load clinic %s for review notice: %v", record.ClinicID.Hex(), err)
		return
	}
	owner, err := adc.users.FindByID(ctx, clinic.UserID)
	if err != nil {
		adc.logger.Printf("Failed to load owner of clinic %s for review notice: %v", clinic.ID.Hex(), err)
		return
	}

	title := "Payment approved"
	message := "Your " + record.PlanCode + " subscription is now active."
	if !approved {
		title = "Payment rejected"
		message = "Your bank transfer was rejected: " + reason
	}
	utils.NotifyBillingEvent(adc.DB, owner.ID, title, message,
		models.NotificationManualPaymentReviewed,
		map[string]interface{}{
			"paymentId": record.ID.Hex(),
			"approved":  strconv.FormatBool(approved),
		})

	utils.SendManualReviewEmail(owner.Email, owner.FullName, record.PlanCode, approved, reason)
}

// --- Tenant administration ---

// GetClinics pages through registered clinics, optionally filtered by
// subscription status.
func (adc *AdminController) GetClinics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := c.QueryParam("status")
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)

	clinics, total, err := adc.clinics.List(ctx, status, page, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Clinics retrieved successfully",
		Data: map[string]interface{}{
			"clinics": clinics,
			"total":   total,
		},
	})
}

// GetClinic shows one clinic with its owner and recent payments.
func (adc *AdminController) GetClinic(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return respondBadRequest(c, "Invalid clinic ID")
	}

	clinic, err := adc.clinics.FindByID(ctx, clinicID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return respondError(c, services.NotFoundError(services.CodeClinicNotFound, "clinic not found"))
		}
		return respondError(c, err)
	}

	data := map[string]interface{}{"clinic": clinic}

	if owner, err := adc.users.FindByID(ctx, clinic.UserID); err == nil {
		owner.Password = ""
		owner.OTPInfo = nil
		data["owner"] = owner
	}
	if payments, _, err := adc.ledger.ListClinicPayments(ctx, clinicID, 1, 10); err == nil {
		data["recentPayments"] = payments
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Clinic retrieved successfully",
		Data:    data,
	})
}

// CancelClinicSubscription cancels a clinic's subscription. Reactivation
// requires a fresh payment.
func (adc *AdminController) CancelClinicSubscription(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return respondBadRequest(c, "Invalid clinic ID")
	}

	clinic, err := adc.subscriptions.Cancel(ctx, clinicID)
	if err != nil {
		return respondError(c, err)
	}

	adc.hub.NotifySubscriptionChanged(websocket.EventSubscriptionCanceled, clinicID, map[string]interface{}{
		"status": clinic.Subscription.Status,
	})
	go adc.notifySubscriptionChange(clinic, "Subscription canceled",
		"Your subscription has been canceled. Subscribe again to keep using Clinora.",
		models.NotificationSubscriptionCanceled)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Subscription canceled",
		Data:    clinic,
	})
}

// MarkClinicPastDue flags an active clinic whose renewal payment did not
// arrive. The clinic can settle up and reactivate without a new signup.
func (adc *AdminController) MarkClinicPastDue(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return respondBadRequest(c, "Invalid clinic ID")
	}

	clinic, err := adc.subscriptions.MarkPastDue(ctx, clinicID)
	if err != nil {
		return respondError(c, err)
	}

	adc.hub.NotifySubscriptionChanged(websocket.EventSubscriptionPastDue, clinicID, map[string]interface{}{
		"status": clinic.Subscription.Status,
	})
	go adc.notifySubscriptionChange(clinic, "Payment overdue",
		"Your subscription payment is overdue. Settle it to keep your access.",
		models.NotificationSubscriptionPastDue)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Subscription marked past due",
		Data:    clinic,
	})
}

func (adc *AdminController) notifySubscriptionChange(clinic *models.Clinic, title, message, notifType string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	owner, err := adc.users.FindByID(ctx, clinic.UserID)
	if err != nil {
		adc.logger.Printf("Failed to load owner of clinic %s for %s notice: %v", clinic.ID.Hex(), notifType, err)
		return
	}
	utils.NotifyBillingEvent(adc.DB, owner.ID, title, message, notifType, map[string]interface{}{
		"clinicId": clinic.ID.Hex(),
		"status":   clinic.Subscription.Status,
	})
}

// --- Live billing feed ---

// HandleBillingWS connects an admin to the billing event stream.
func (adc *AdminController) HandleBillingWS(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	return websocket.HandleWebSocket(c, adc.hub, userID)
}
