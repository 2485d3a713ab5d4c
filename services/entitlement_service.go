// services/entitlement_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SeatCounter counts the doctors currently occupying seats for a clinic.
// DoctorRepository satisfies it; tests swap in a mock to prove unlimited
// plans never trigger a count.
type SeatCounter interface {
	CountActive(ctx context.Context, clinicID primitive.ObjectID) (int64, error)
}

// EntitlementService answers "may this clinic add another doctor right now".
type EntitlementService interface {
	AssertCanAddDoctor(ctx context.Context, clinicID primitive.ObjectID) error
}

type entitlementService struct {
	clinics repositories.ClinicRepository
	catalog PlanCatalog
	seats   SeatCounter
}

func NewEntitlementService(clinics repositories.ClinicRepository, catalog PlanCatalog, seats SeatCounter) EntitlementService {
	return &entitlementService{
		clinics: clinics,
		catalog: catalog,
		seats:   seats,
	}
}

// AssertCanAddDoctor runs the gate in a fixed order: subscription must be
// ACTIVE, the plan must still exist and be active, and the seat count must be
// under the plan's limit. Unlimited plans (limit 0) return before any count
// query is issued.
//
// This is a soft limit: the count and the subsequent insert are not one
// atomic step, so two callers racing at limit-1 can both pass and leave the
// clinic one doctor over. No seat is reserved between check and insert.
func (s *entitlementService) AssertCanAddDoctor(ctx context.Context, clinicID primitive.ObjectID) error {
	clinic, err := s.clinics.FindByID(ctx, clinicID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return NotFoundError(CodeClinicNotFound, "clinic not found")
		}
		return err
	}

	if clinic.Subscription.Status != models.SubscriptionActive {
		return ForbiddenError(CodeSubscriptionInactive,
			"subscription is not active").WithMeta("status", clinic.Subscription.Status)
	}

	plan, err := s.catalog.ActivePlanByCode(ctx, clinic.Subscription.PlanCode)
	if err != nil {
		return err
	}

	if plan.Unlimited() {
		return nil
	}

	count, err := s.seats.CountActive(ctx, clinicID)
	if err != nil {
		return err
	}
	if count >= int64(plan.DoctorLimit) {
		return ConflictError(CodeSeatLimitReached,
			fmt.Sprintf("plan %s allows at most %d doctors", plan.Name, plan.DoctorLimit)).
			WithMeta("plan", plan.Name).
			WithMeta("planCode", plan.Code).
			WithMeta("limit", plan.DoctorLimit)
	}
	return nil
}
