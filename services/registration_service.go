// services/registration_service.go
package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// RegistrationService creates the owner user and their clinic as one unit.
type RegistrationService interface {
	RegisterClinic(ctx context.Context, req models.RegisterClinicRequest) (*models.User, *models.Clinic, error)
}

type registrationService struct {
	users   repositories.UserRepository
	clinics repositories.ClinicRepository
}

func NewRegistrationService(users repositories.UserRepository, clinics repositories.ClinicRepository) RegistrationService {
	return &registrationService{users: users, clinics: clinics}
}

// RegisterClinic inserts the user, then the clinic. If the clinic insert
// fails the user insert is compensated with a delete so no ownerless account
// survives a partial signup. A failed compensation is logged loudly; it is
// the only way this flow leaks state.
func (s *registrationService) RegisterClinic(ctx context.Context, req models.RegisterClinicRequest) (*models.User, *models.Clinic, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, nil, ConflictError(CodeEmailTaken, "an account with this email already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, err
	}

	if _, err := s.clinics.FindByRegistrationID(ctx, req.RegistrationID); err == nil {
		return nil, nil, ConflictError(CodeRegistrationIDTaken, "a clinic with this registration id already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	// The clinic id is generated up front so the user document is born
	// complete; only the clinic insert can still fail and be compensated.
	clinicID := primitive.NewObjectID()

	user := &models.User{
		Email:    email,
		Password: string(hashed),
		FullName: req.FullName,
		Role:     models.RoleOwner,
		Phone:    req.Phone,
		ClinicID: &clinicID,
		IsActive: true,
	}
	userID, err := s.users.Insert(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, nil, ConflictError(CodeEmailTaken, "an account with this email already exists")
		}
		return nil, nil, err
	}

	clinic := &models.Clinic{
		ID:             clinicID,
		UserID:         userID,
		Name:           req.ClinicName,
		RegistrationID: req.RegistrationID,
		Phone:          req.ClinicPhone,
		Address:        req.Address,
		Subscription: models.Subscription{
			Status: models.SubscriptionPendingVerification,
		},
	}
	if _, err := s.clinics.Insert(ctx, clinic); err != nil {
		if delErr := s.users.Delete(ctx, userID); delErr != nil {
			log.Printf("CRITICAL: clinic insert failed for user %s and rollback also failed: insert=%v rollback=%v",
				userID.Hex(), err, delErr)
		} else {
			log.Printf("clinic insert failed for user %s, signup rolled back: %v", userID.Hex(), err)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, nil, ConflictError(CodeRegistrationIDTaken, "a clinic with this registration id already exists")
		}
		return nil, nil, err
	}

	log.Printf("clinic %s registered by user %s, awaiting email verification", clinicID.Hex(), userID.Hex())
	return user, clinic, nil
}
