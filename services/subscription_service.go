// services/subscription_service.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SubscriptionService drives the clinic subscription lifecycle:
//
//	PENDING_VERIFICATION -> PENDING_PAYMENT -> ACTIVE <-> PAST_DUE -> CANCELED
//
// CANCELED only leaves through Activate with a fresh completed payment.
// Every transition goes through a conditional update filtered on the current
// status, so two racing callers cannot both apply the same transition.
type SubscriptionService interface {
	MarkVerified(ctx context.Context, clinicID primitive.ObjectID) (*models.Clinic, error)
	Activate(ctx context.Context, clinicID primitive.ObjectID, activation Activation) (*models.Clinic, error)
	MarkPastDue(ctx context.Context, clinicID primitive.ObjectID) (*models.Clinic, error)
	Cancel(ctx context.Context, clinicID primitive.ObjectID) (*models.Clinic, error)
}

// Activation carries everything Activate stamps onto the clinic. The
// PaymentRecordID doubles as the idempotency key: re-activating from the same
// payment record is a no-op.
type Activation struct {
	PlanCode          string
	BillingCycle      string
	PaymentRecordID   primitive.ObjectID
	ProviderOrderID   string
	ProviderPaymentID string
}

type subscriptionService struct {
	clinics repositories.ClinicRepository
}

func NewSubscriptionService(clinics repositories.ClinicRepository) SubscriptionService {
	return &subscriptionService{clinics: clinics}
}

// MarkVerified moves a freshly registered clinic to PENDING_PAYMENT. A clinic
// that already moved on (repeated verification clicks, resent emails) is a
// success, not an error.
func (s *subscriptionService) MarkVerified(ctx context.Context, clinicID primitive.ObjectID) (*models.Clinic, error) {
	clinic, err := s.clinics.UpdateStatusFrom(ctx, clinicID,
		[]string{models.SubscriptionPendingVerification}, models.SubscriptionPendingPayment)
	if err == nil {
		log.Printf("clinic %s verified, awaiting payment", clinicID.Hex())
		return clinic, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No pending-verification clinic matched. Either it does not exist or it
	// is already past verification.
	clinic, err = s.clinics.FindByID(ctx, clinicID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodeClinicNotFound, "clinic not found")
		}
		return nil, err
	}
	return clinic, nil
}

// Activate turns a completed payment into an ACTIVE subscription. Valid from
// PENDING_PAYMENT, PAST_DUE and CANCELED (reactivation). Calling it again
// with the same payment record returns the clinic unchanged.
func (s *subscriptionService) Activate(ctx context.Context, clinicID primitive.ObjectID, activation Activation) (*models.Clinic, error) {
	now := time.Now()
	recordID := activation.PaymentRecordID
	sub := models.Subscription{
		PlanCode:          activation.PlanCode,
		BillingCycle:      activation.BillingCycle,
		Status:            models.SubscriptionActive,
		ProviderOrderID:   activation.ProviderOrderID,
		ProviderPaymentID: activation.ProviderPaymentID,
		PaymentRecordID:   &recordID,
		ActivatedAt:       &now,
	}

	from := []string{
		models.SubscriptionPendingPayment,
		models.SubscriptionPastDue,
		models.SubscriptionCanceled,
	}
	clinic, err := s.clinics.ActivateSubscription(ctx, clinicID, from, sub)
	if err == nil {
		log.Printf("clinic %s activated on plan %s (%s), payment record %s",
			clinicID.Hex(), activation.PlanCode, activation.BillingCycle, recordID.Hex())
		return clinic, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	clinic, err = s.clinics.FindByID(ctx, clinicID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodeClinicNotFound, "clinic not found")
		}
		return nil, err
	}

	if clinic.Subscription.Status == models.SubscriptionActive &&
		clinic.Subscription.PaymentRecordID != nil &&
		*clinic.Subscription.PaymentRecordID == recordID {
		// Same payment applied twice; first activation stands.
		return clinic, nil
	}

	return nil, StateError(CodeInvalidTransition,
		"cannot activate from status "+clinic.Subscription.Status).
		WithMeta("status", clinic.Subscription.Status)
}

func (s *subscriptionService) MarkPastDue(ctx context.Context, clinicID primitive.ObjectID) (*models.Clinic, error) {
	clinic, err := s.clinics.UpdateStatusFrom(ctx, clinicID,
		[]string{models.SubscriptionActive}, models.SubscriptionPastDue)
	if err == nil {
		log.Printf("clinic %s marked past due", clinicID.Hex())
		return clinic, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, s.transitionError(ctx, clinicID, models.SubscriptionPastDue)
}

// Cancel ends the subscription from any non-terminal state.
func (s *subscriptionService) Cancel(ctx context.Context, clinicID primitive.ObjectID) (*models.Clinic, error) {
	from := []string{
		models.SubscriptionPendingVerification,
		models.SubscriptionPendingPayment,
		models.SubscriptionActive,
		models.SubscriptionPastDue,
	}
	clinic, err := s.clinics.CancelSubscription(ctx, clinicID, from)
	if err == nil {
		log.Printf("clinic %s subscription canceled", clinicID.Hex())
		return clinic, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, s.transitionError(ctx, clinicID, models.SubscriptionCanceled)
}

// transitionError distinguishes "clinic missing" from "wrong current status"
// after a conditional update matched nothing.
func (s *subscriptionService) transitionError(ctx context.Context, clinicID primitive.ObjectID, to string) error {
	clinic, err := s.clinics.FindByID(ctx, clinicID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return NotFoundError(CodeClinicNotFound, "clinic not found")
		}
		return err
	}
	return StateError(CodeInvalidTransition,
		"cannot move subscription from "+clinic.Subscription.Status+" to "+to).
		WithMeta("status", clinic.Subscription.Status)
}
