// config/seed.go
package config

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"
)

// SeedDefaults installs the built-in plans and the first admin account so a
// fresh database is usable without manual setup. Both writes are idempotent
// and run on every boot.
func SeedDefaults(db *mongo.Database) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	seedPlans(ctx, db)
	seedAdmin(ctx, db)
}

// seedPlans upserts the default catalog. Prices are INR minor units (paise);
// admin edits to an existing plan are never overwritten.
func seedPlans(ctx context.Context, db *mongo.Database) {
	plans := repositories.NewPlanRepository(db)

	defaults := []models.Plan{
		{
			Code:              models.PlanCodePro,
			Name:              "Pro",
			MonthlyPriceMinor: 199900,
			YearlyPriceMinor:  1999000,
			Currency:          "INR",
			DoctorLimit:       3,
			Features:          []string{"Up to 3 doctors", "Appointment calendar", "Email support"},
			IsActive:          true,
		},
		{
			Code:              models.PlanCodeProfessional,
			Name:              "Professional",
			MonthlyPriceMinor: 499900,
			YearlyPriceMinor:  4999000,
			Currency:          "INR",
			DoctorLimit:       10,
			Features:          []string{"Up to 10 doctors", "Appointment calendar", "Billing reports", "Priority support"},
			IsActive:          true,
		},
		{
			Code:              models.PlanCodeEnterprise,
			Name:              "Enterprise",
			MonthlyPriceMinor: 999900,
			YearlyPriceMinor:  9999000,
			Currency:          "INR",
			DoctorLimit:       models.UnlimitedDoctors,
			Features:          []string{"Unlimited doctors", "Appointment calendar", "Billing reports", "Dedicated support"},
			IsActive:          true,
		},
	}

	for _, plan := range defaults {
		if err := plans.UpsertSeed(ctx, plan); err != nil {
			log.Printf("Failed to seed plan %s: %v", plan.Code, err)
		}
	}
}

// seedAdmin creates the first back-office account from ADMIN_EMAIL and
// ADMIN_PASSWORD. An existing account with that email wins.
func seedAdmin(ctx context.Context, db *mongo.Database) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	users := repositories.NewUserRepository(db)
	if _, err := users.FindByEmail(ctx, email); err == nil {
		return
	} else if err != mongo.ErrNoDocuments {
		log.Printf("Failed to check for existing admin account: %v", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}

	admin := &models.User{
		Email:         email,
		Password:      string(hash),
		FullName:      "Platform Admin",
		Role:          models.RoleAdmin,
		EmailVerified: true,
		IsActive:      true,
	}
	if _, err := users.Insert(ctx, admin); err != nil {
		log.Printf("Failed to seed admin account: %v", err)
		return
	}
	log.Printf("Seeded admin account %s", email)
}
