// services/plan_catalog.go
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PlanCatalog is the authoritative registry of subscription plans. Every
// amount the system charges comes out of PriceMinor; request bodies never
// carry prices.
type PlanCatalog interface {
	ActivePlanByCode(ctx context.Context, code string) (*models.Plan, error)
	PriceMinor(ctx context.Context, code, cycle string) (int64, string, error)
	ListActive(ctx context.Context) ([]models.Plan, error)

	// Admin operations
	ListAll(ctx context.Context) ([]models.Plan, error)
	CreatePlan(ctx context.Context, req models.PlanRequest) (*models.Plan, error)
	UpdatePlan(ctx context.Context, code string, req models.PlanRequest) (*models.Plan, error)
	ArchivePlan(ctx context.Context, code string) (*models.Plan, error)
}

type planCatalog struct {
	plans repositories.PlanRepository
}

func NewPlanCatalog(plans repositories.PlanRepository) PlanCatalog {
	return &planCatalog{plans: plans}
}

func (c *planCatalog) ActivePlanByCode(ctx context.Context, code string) (*models.Plan, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ValidationError(CodeValidationFailed, "plan code is required")
	}

	plan, err := c.plans.FindActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodePlanNotFound, "no active plan with code "+code)
		}
		return nil, err
	}
	return plan, nil
}

// PriceMinor returns the canonical price and currency for a plan and billing
// cycle. Unknown cycles are a validation error, not a zero price.
func (c *planCatalog) PriceMinor(ctx context.Context, code, cycle string) (int64, string, error) {
	plan, err := c.ActivePlanByCode(ctx, code)
	if err != nil {
		return 0, "", err
	}

	amount, ok := plan.PriceMinor(cycle)
	if !ok {
		return 0, "", ValidationError(CodeValidationFailed, "unknown billing cycle "+cycle)
	}
	return amount, plan.Currency, nil
}

func (c *planCatalog) ListActive(ctx context.Context) ([]models.Plan, error) {
	return c.plans.ListActive(ctx)
}

func (c *planCatalog) ListAll(ctx context.Context) ([]models.Plan, error) {
	return c.plans.ListAll(ctx)
}

func (c *planCatalog) CreatePlan(ctx context.Context, req models.PlanRequest) (*models.Plan, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	if _, err := c.plans.FindByCode(ctx, code); err == nil {
		return nil, ConflictError(CodePlanCodeTaken, "plan code already exists: "+code)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	plan := &models.Plan{
		Code:              code,
		Name:              req.Name,
		MonthlyPriceMinor: req.MonthlyPriceMinor,
		YearlyPriceMinor:  req.YearlyPriceMinor,
		Currency:          strings.ToUpper(req.Currency),
		DoctorLimit:       req.DoctorLimit,
		Features:          req.Features,
		IsActive:          active,
	}
	if err := c.plans.Insert(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdatePlan edits a plan in place. Plans referenced by payment records are
// archived, never deleted, so history keeps resolving.
func (c *planCatalog) UpdatePlan(ctx context.Context, code string, req models.PlanRequest) (*models.Plan, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	set := bson.M{
		"name":              req.Name,
		"monthlyPriceMinor": req.MonthlyPriceMinor,
		"yearlyPriceMinor":  req.YearlyPriceMinor,
		"currency":          strings.ToUpper(req.Currency),
		"doctorLimit":       req.DoctorLimit,
		"features":          req.Features,
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}

	plan, err := c.plans.UpdateByCode(ctx, code, set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodePlanNotFound, "no plan with code "+code)
		}
		return nil, err
	}
	return plan, nil
}

func (c *planCatalog) ArchivePlan(ctx context.Context, code string) (*models.Plan, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	plan, err := c.plans.SetActive(ctx, code, false)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError(CodePlanNotFound, "no plan with code "+code)
		}
		return nil, err
	}
	return plan, nil
}
