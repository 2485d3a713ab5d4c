// services/payment_ledger.go
package services

import (
	"context"
	"errors"
	"log"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PaymentLedger owns the payment_records collection and the rules around it:
// canonical pricing, signature checks, idempotent confirmation, and the
// hand-off to subscription activation.
type PaymentLedger interface {
	BeginProviderPayment(ctx context.Context, clinicID primitive.ObjectID, planCode, cycle string) (*models.CheckoutData, error)
	ConfirmProviderPayment(ctx context.Context, callerClinicID primitive.ObjectID, req models.ConfirmPaymentRequest) (*ConfirmResult, error)
	ConfirmWebhookPayment(ctx context.Context, orderID, paymentID string) (*ConfirmResult, error)
	FailWebhookPayment(ctx context.Context, orderID string) error
	SubmitManualPayment(ctx context.Context, clinicID primitive.ObjectID, planCode, cycle, transactionRef string) (*models.PaymentRecord, error)
	ApproveManualPayment(ctx context.Context, adminID, paymentID primitive.ObjectID) (*ConfirmResult, error)
	RejectManualPayment(ctx context.Context, adminID, paymentID primitive.ObjectID, reason string) (*models.PaymentRecord, error)
	PendingOrderForClinic(ctx context.Context, clinicID primitive.ObjectID, orderID string) (*models.PaymentRecord, error)
	ListClinicPayments(ctx context.Context, clinicID primitive.ObjectID, page, limit int64) ([]models.PaymentRecord, int64, error)
	ListPendingManualPayments(ctx context.Context) ([]models.PaymentRecord, error)
}

// ConfirmResult reports what a confirmation did. AlreadyProcessed is true
// when an earlier confirmation had completed the record and activated the
// subscription.
type ConfirmResult struct {
	Record           *models.PaymentRecord
	Clinic           *models.Clinic
	AlreadyProcessed bool
}

type paymentLedger struct {
	payments      repositories.PaymentRepository
	clinics       repositories.ClinicRepository
	catalog       PlanCatalog
	subscriptions SubscriptionService
	gateway       PaymentGateway
}

func NewPaymentLedger(
	payments repositories.PaymentRepository,
	clinics repositories.ClinicRepository,
	catalog PlanCatalog,
	subscriptions SubscriptionService,
	gateway PaymentGateway,
) PaymentLedger {
	return &paymentLedger{
		payments:      payments,
		clinics:       clinics,
		catalog:       catalog,
		subscriptions: subscriptions,
		gateway:       gateway,
	}
}

// BeginProviderPayment opens a provider order for a plan purchase. The amount
// always comes from the plan catalog; whatever amount a client may have sent
// never reaches this function. Nothing is persisted when the provider call
// fails.
func (l *paymentLedger) BeginProviderPayment(ctx context.Context, clinicID primitive.ObjectID, planCode, cycle string) (*models.CheckoutData, error) {
	clinic, err := l.clinics.FindByID(ctx, clinicID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodeClinicNotFound, "clinic not found")
		}
		return nil, err
	}
	if clinic.Subscription.Status == models.SubscriptionPendingVerification {
		return nil, StateError(CodeEmailNotVerified, "verify your email before starting a payment")
	}

	amount, currency, err := l.catalog.PriceMinor(ctx, planCode, cycle)
	if err != nil {
		return nil, err
	}

	receipt := uuid.NewString()
	notes := map[string]string{
		"clinicId":     clinicID.Hex(),
		"planCode":     planCode,
		"billingCycle": cycle,
	}
	orderID, err := l.gateway.CreateOrder(ctx, amount, currency, receipt, notes)
	if err != nil {
		log.Printf("order creation failed for clinic %s plan %s: %v", clinicID.Hex(), planCode, err)
		return nil, UpstreamError(CodeOrderCreationFailed, "payment provider rejected the order").WithCause(err)
	}

	record := &models.PaymentRecord{
		ClinicID:        clinicID,
		PlanCode:        planCode,
		BillingCycle:    cycle,
		AmountMinor:     amount,
		Currency:        currency,
		Method:          models.PaymentMethodProvider,
		Status:          models.PaymentPending,
		ProviderOrderID: orderID,
		Receipt:         receipt,
	}
	if _, err := l.payments.Insert(ctx, record); err != nil {
		return nil, err
	}

	log.Printf("payment %s pending for clinic %s: order %s, %d %s",
		record.ID.Hex(), clinicID.Hex(), orderID, amount, currency)

	return &models.CheckoutData{
		OrderID:     orderID,
		AmountMinor: amount,
		Currency:    currency,
		KeyID:       l.gateway.KeyID(),
	}, nil
}

// ConfirmProviderPayment settles a checkout from the client callback. It is
// safe to call any number of times, concurrently with the provider webhook:
// the signature is verified before completion, completion is a conditional
// update that only one caller wins, and activation is idempotent by payment
// record.
//
// callerClinicID scopes the confirmation to the authenticated tenant.
func (l *paymentLedger) ConfirmProviderPayment(ctx context.Context, callerClinicID primitive.ObjectID, req models.ConfirmPaymentRequest) (*ConfirmResult, error) {
	return l.confirm(ctx, callerClinicID, req.OrderID, req.PaymentID, req.Signature, false)
}

// ConfirmWebhookPayment settles a checkout from the provider webhook. The
// webhook body signature has been checked by the caller, which also means the
// order and payment ids are the provider's own words; no per-payment
// signature exists on this path. Webhooks carry no tenant.
func (l *paymentLedger) ConfirmWebhookPayment(ctx context.Context, orderID, paymentID string) (*ConfirmResult, error) {
	return l.confirm(ctx, primitive.NilObjectID, orderID, paymentID, "", true)
}

func (l *paymentLedger) confirm(ctx context.Context, callerClinicID primitive.ObjectID, orderID, paymentID, signature string, preverified bool) (*ConfirmResult, error) {
	record, err := l.payments.FindByProviderOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodePaymentNotFound, "no payment for order "+orderID)
		}
		return nil, err
	}

	if callerClinicID != primitive.NilObjectID && record.ClinicID != callerClinicID {
		log.Printf("WARNING: clinic %s attempted to confirm order %s owned by clinic %s",
			callerClinicID.Hex(), orderID, record.ClinicID.Hex())
		return nil, ForbiddenError(CodeTenantMismatch, "payment belongs to another clinic")
	}

	switch record.Status {
	case models.PaymentCompleted:
		return l.resumeCompleted(ctx, record)
	case models.PaymentFailed, models.PaymentRejected:
		return nil, StateError(CodePaymentNotPending, "payment is "+record.Status+" and cannot be confirmed")
	}

	if !preverified && !l.gateway.VerifySignature(orderID, paymentID, signature) {
		log.Printf("WARNING: signature mismatch confirming order %s (payment %s) for clinic %s",
			orderID, paymentID, record.ClinicID.Hex())
		if _, err := l.payments.MarkFailed(ctx, record.ID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			log.Printf("failed to mark payment %s failed: %v", record.ID.Hex(), err)
		}
		return nil, ConflictError(CodeSignatureMismatch, "payment signature verification failed")
	}

	completed, err := l.payments.CompleteProviderPayment(ctx, record.ID, paymentID, signature)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		// Lost the conditional update: someone else moved the record first.
		record, err = l.payments.FindByID(ctx, record.ID)
		if err != nil {
			return nil, err
		}
		if record.Status != models.PaymentCompleted {
			return nil, StateError(CodePaymentNotPending, "payment is "+record.Status+" and cannot be confirmed")
		}
		return l.resumeCompleted(ctx, record)
	}

	log.Printf("payment %s completed for clinic %s: order %s, payment %s",
		completed.ID.Hex(), completed.ClinicID.Hex(), orderID, paymentID)
	return l.finishActivation(ctx, completed, false)
}

// FailWebhookPayment marks a pending order failed after a payment.failed
// event. A record that already left PENDING is left alone.
func (l *paymentLedger) FailWebhookPayment(ctx context.Context, orderID string) error {
	record, err := l.payments.FindByProviderOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return NotFoundError(CodePaymentNotFound, "no payment for order "+orderID)
		}
		return err
	}
	if record.Status != models.PaymentPending {
		return nil
	}
	if _, err := l.payments.MarkFailed(ctx, record.ID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	log.Printf("payment %s marked failed for clinic %s after provider event on order %s",
		record.ID.Hex(), record.ClinicID.Hex(), orderID)
	return nil
}

// resumeCompleted handles a confirmation that arrives after the record is
// already COMPLETED. If the subscription carries this payment record the
// earlier confirmation did all the work and nothing runs again; a canceled
// subscription stays canceled no matter how often an old order is replayed.
// Only a record that was completed but never applied (crash between
// completion and activation) still activates here.
func (l *paymentLedger) resumeCompleted(ctx context.Context, record *models.PaymentRecord) (*ConfirmResult, error) {
	clinic, err := l.clinics.FindByID(ctx, record.ClinicID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodeClinicNotFound, "clinic not found")
		}
		return nil, err
	}
	if clinic.Subscription.PaymentRecordID != nil && *clinic.Subscription.PaymentRecordID == record.ID {
		return &ConfirmResult{Record: record, Clinic: clinic, AlreadyProcessed: true}, nil
	}
	return l.finishActivation(ctx, record, true)
}

// finishActivation applies a completed record to the clinic. The record stays
// COMPLETED even when activation fails, so a later confirm retries this step.
func (l *paymentLedger) finishActivation(ctx context.Context, record *models.PaymentRecord, alreadyProcessed bool) (*ConfirmResult, error) {
	clinic, err := l.subscriptions.Activate(ctx, record.ClinicID, Activation{
		PlanCode:          record.PlanCode,
		BillingCycle:      record.BillingCycle,
		PaymentRecordID:   record.ID,
		ProviderOrderID:   record.ProviderOrderID,
		ProviderPaymentID: record.ProviderPaymentID,
	})
	if err != nil {
		log.Printf("payment %s completed but activation failed for clinic %s: %v",
			record.ID.Hex(), record.ClinicID.Hex(), err)
		return nil, err
	}
	return &ConfirmResult{Record: record, Clinic: clinic, AlreadyProcessed: alreadyProcessed}, nil
}

// SubmitManualPayment records an offline transfer for admin review. The
// subscription does not move until approval.
func (l *paymentLedger) SubmitManualPayment(ctx context.Context, clinicID primitive.ObjectID, planCode, cycle, transactionRef string) (*models.PaymentRecord, error) {
	clinic, err := l.clinics.FindByID(ctx, clinicID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodeClinicNotFound, "clinic not found")
		}
		return nil, err
	}
	if clinic.Subscription.Status == models.SubscriptionPendingVerification {
		return nil, StateError(CodeEmailNotVerified, "verify your email before submitting a payment")
	}

	amount, currency, err := l.catalog.PriceMinor(ctx, planCode, cycle)
	if err != nil {
		return nil, err
	}

	record := &models.PaymentRecord{
		ClinicID:       clinicID,
		PlanCode:       planCode,
		BillingCycle:   cycle,
		AmountMinor:    amount,
		Currency:       currency,
		Method:         models.PaymentMethodManual,
		Status:         models.PaymentPending,
		TransactionRef: transactionRef,
	}
	if _, err := l.payments.Insert(ctx, record); err != nil {
		return nil, err
	}

	log.Printf("manual payment %s submitted by clinic %s for plan %s (%s), ref %s",
		record.ID.Hex(), clinicID.Hex(), planCode, cycle, transactionRef)
	return record, nil
}

// ApproveManualPayment completes a pending manual record and activates the
// subscription. Approving an already-approved payment is a no-op.
func (l *paymentLedger) ApproveManualPayment(ctx context.Context, adminID, paymentID primitive.ObjectID) (*ConfirmResult, error) {
	record, err := l.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodePaymentNotFound, "payment not found")
		}
		return nil, err
	}
	if record.Method != models.PaymentMethodManual {
		return nil, StateError(CodePaymentNotPending, "only manual payments go through admin review")
	}

	completed, err := l.payments.CompleteManualPayment(ctx, paymentID, adminID)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		record, err = l.payments.FindByID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if record.Status != models.PaymentCompleted {
			return nil, StateError(CodePaymentNotPending, "payment is "+record.Status+" and cannot be approved")
		}
		return l.resumeCompleted(ctx, record)
	}

	log.Printf("manual payment %s approved by admin %s", paymentID.Hex(), adminID.Hex())
	return l.finishActivation(ctx, completed, false)
}

// RejectManualPayment closes a pending manual record without touching the
// subscription.
func (l *paymentLedger) RejectManualPayment(ctx context.Context, adminID, paymentID primitive.ObjectID, reason string) (*models.PaymentRecord, error) {
	record, err := l.payments.RejectManualPayment(ctx, paymentID, adminID, reason)
	if err == nil {
		log.Printf("manual payment %s rejected by admin %s: %s", paymentID.Hex(), adminID.Hex(), reason)
		return record, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	record, err = l.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodePaymentNotFound, "payment not found")
		}
		return nil, err
	}
	return nil, StateError(CodePaymentNotPending, "payment is "+record.Status+" and cannot be rejected")
}

// PendingOrderForClinic fetches a clinic's own pending provider order,
// used by the checkout QR endpoint.
func (l *paymentLedger) PendingOrderForClinic(ctx context.Context, clinicID primitive.ObjectID, orderID string) (*models.PaymentRecord, error) {
	record, err := l.payments.FindByProviderOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodePaymentNotFound, "no payment for order "+orderID)
		}
		return nil, err
	}
	if record.ClinicID != clinicID {
		return nil, ForbiddenError(CodeTenantMismatch, "payment belongs to another clinic")
	}
	if record.Status != models.PaymentPending {
		return nil, StateError(CodePaymentNotPending, "order is no longer pending")
	}
	return record, nil
}

func (l *paymentLedger) ListClinicPayments(ctx context.Context, clinicID primitive.ObjectID, page, limit int64) ([]models.PaymentRecord, int64, error) {
	return l.payments.ListByClinic(ctx, clinicID, page, limit)
}

func (l *paymentLedger) ListPendingManualPayments(ctx context.Context) ([]models.PaymentRecord, error) {
	return l.payments.ListPendingManual(ctx)
}
