// models/plan.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Billing cycles accepted at checkout
const (
	CycleMonthly = "monthly"
	CycleYearly  = "yearly"
)

// Built-in plan codes seeded at startup
const (
	PlanCodePro          = "PRO"
	PlanCodeProfessional = "PROFESSIONAL"
	PlanCodeEnterprise   = "ENTERPRISE"
)

// UnlimitedDoctors is the DoctorLimit sentinel for plans without a seat cap
const UnlimitedDoctors = 0

// Plan represents a subscription plan for clinics. Prices are integer minor
// units (cents); money is never stored or computed as a float.
type Plan struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code              string             `json:"code" bson:"code"`
	Name              string             `json:"name" bson:"name"`
	MonthlyPriceMinor int64              `json:"monthlyPriceMinor" bson:"monthlyPriceMinor"`
	YearlyPriceMinor  int64              `json:"yearlyPriceMinor" bson:"yearlyPriceMinor"`
	Currency          string             `json:"currency" bson:"currency"`
	DoctorLimit       int                `json:"doctorLimit" bson:"doctorLimit"` // 0 = unlimited
	Features          []string           `json:"features,omitempty" bson:"features,omitempty"`
	IsActive          bool               `json:"isActive" bson:"isActive"`
	CreatedAt         time.Time          `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt         time.Time          `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// PriceMinor returns the price for a billing cycle. The second return is false
// for an unknown cycle.
func (p *Plan) PriceMinor(cycle string) (int64, bool) {
	switch cycle {
	case CycleMonthly:
		return p.MonthlyPriceMinor, true
	case CycleYearly:
		return p.YearlyPriceMinor, true
	default:
		return 0, false
	}
}

// Unlimited reports whether the plan has no doctor seat cap
func (p *Plan) Unlimited() bool {
	return p.DoctorLimit == UnlimitedDoctors
}

// PlanRequest represents the admin request body for creating/updating plans
type PlanRequest struct {
	Code              string   `json:"code" validate:"required,uppercase,alphanum"`
	Name              string   `json:"name" validate:"required"`
	MonthlyPriceMinor int64    `json:"monthlyPriceMinor" validate:"gte=0"`
	YearlyPriceMinor  int64    `json:"yearlyPriceMinor" validate:"gte=0"`
	Currency          string   `json:"currency" validate:"required,len=3"`
	DoctorLimit       int      `json:"doctorLimit" validate:"gte=0"`
	Features          []string `json:"features"`
	IsActive          *bool    `json:"isActive"`
}
