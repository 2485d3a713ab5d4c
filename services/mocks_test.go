package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/clinora/clinora_backend/models"
)

// Shared repository and service mocks for the tests in this package.

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Insert(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) SetOTP(ctx context.Context, id primitive.ObjectID, otp models.OTPInfo) error {
	args := m.Called(ctx, id, otp)
	return args.Error(0)
}

func (m *MockUserRepository) MarkEmailVerified(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) SetGoogleID(ctx context.Context, id primitive.ObjectID, googleID string) error {
	args := m.Called(ctx, id, googleID)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error {
	args := m.Called(ctx, id, hashedPassword)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateFCMToken(ctx context.Context, id primitive.ObjectID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockClinicRepository struct {
	mock.Mock
}

func (m *MockClinicRepository) Insert(ctx context.Context, clinic *models.Clinic) (primitive.ObjectID, error) {
	args := m.Called(ctx, clinic)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *MockClinicRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Clinic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockClinicRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Clinic, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockClinicRepository) FindByRegistrationID(ctx context.Context, registrationID string) (*models.Clinic, error) {
	args := m.Called(ctx, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockClinicRepository) UpdateStatusFrom(ctx context.Context, id primitive.ObjectID, from []string, to string) (*models.Clinic, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockClinicRepository) ActivateSubscription(ctx context.Context, id primitive.ObjectID, from []string, sub models.Subscription) (*models.Clinic, error) {
	args := m.Called(ctx, id, from, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockClinicRepository) CancelSubscription(ctx context.Context, id primitive.ObjectID, from []string) (*models.Clinic, error) {
	args := m.Called(ctx, id, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockClinicRepository) List(ctx context.Context, status string, page, limit int64) ([]models.Clinic, int64, error) {
	args := m.Called(ctx, status, page, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Clinic), args.Get(1).(int64), args.Error(2)
}

func (m *MockClinicRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Insert(ctx context.Context, record *models.PaymentRecord) (primitive.ObjectID, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) FindByProviderOrderID(ctx context.Context, orderID string) (*models.PaymentRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) CompleteProviderPayment(ctx context.Context, id primitive.ObjectID, paymentID, signature string) (*models.PaymentRecord, error) {
	args := m.Called(ctx, id, paymentID, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) CompleteManualPayment(ctx context.Context, id primitive.ObjectID, approvedBy primitive.ObjectID) (*models.PaymentRecord, error) {
	args := m.Called(ctx, id, approvedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) RejectManualPayment(ctx context.Context, id primitive.ObjectID, rejectedBy primitive.ObjectID, reason string) (*models.PaymentRecord, error) {
	args := m.Called(ctx, id, rejectedBy, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, id primitive.ObjectID) (*models.PaymentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) ListByClinic(ctx context.Context, clinicID primitive.ObjectID, page, limit int64) ([]models.PaymentRecord, int64, error) {
	args := m.Called(ctx, clinicID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.PaymentRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentRepository) ListPendingManual(ctx context.Context) ([]models.PaymentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PaymentRecord), args.Error(1)
}

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) Insert(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) FindByCode(ctx context.Context, code string) (*models.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) FindActiveByCode(ctx context.Context, code string) (*models.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) ListActive(ctx context.Context) ([]models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Plan), args.Error(1)
}

func (m *MockPlanRepository) ListAll(ctx context.Context) ([]models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Plan), args.Error(1)
}

func (m *MockPlanRepository) UpdateByCode(ctx context.Context, code string, set bson.M) (*models.Plan, error) {
	args := m.Called(ctx, code, set)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) SetActive(ctx context.Context, code string, active bool) (*models.Plan, error) {
	args := m.Called(ctx, code, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) UpsertSeed(ctx context.Context, plan models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

type MockPlanCatalog struct {
	mock.Mock
}

func (m *MockPlanCatalog) ActivePlanByCode(ctx context.Context, code string) (*models.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanCatalog) PriceMinor(ctx context.Context, code, cycle string) (int64, string, error) {
	args := m.Called(ctx, code, cycle)
	return args.Get(0).(int64), args.String(1), args.Error(2)
}

func (m *MockPlanCatalog) ListActive(ctx context.Context) ([]models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Plan), args.Error(1)
}

func (m *MockPlanCatalog) ListAll(ctx context.Context) ([]models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Plan), args.Error(1)
}

func (m *MockPlanCatalog) CreatePlan(ctx context.Context, req models.PlanRequest) (*models.Plan, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanCatalog) UpdatePlan(ctx context.Context, code string, req models.PlanRequest) (*models.Plan, error) {
	args := m.Called(ctx, code, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanCatalog) ArchivePlan(ctx context.Context, code string) (*models.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) MarkVerified(ctx context.Context, clinicID primitive.ObjectID) (*models.Clinic, error) {
	args := m.Called(ctx, clinicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockSubscriptionService) Activate(ctx context.Context, clinicID primitive.ObjectID, activation Activation) (*models.Clinic, error) {
	args := m.Called(ctx, clinicID, activation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockSubscriptionService) MarkPastDue(ctx context.Context, clinicID primitive.ObjectID) (*models.Clinic, error) {
	args := m.Called(ctx, clinicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockSubscriptionService) Cancel(ctx context.Context, clinicID primitive.ObjectID) (*models.Clinic, error) {
	args := m.Called(ctx, clinicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (string, error) {
	args := m.Called(ctx, amountMinor, currency, receipt, notes)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentGateway) VerifySignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

func (m *MockPaymentGateway) KeyID() string {
	args := m.Called()
	return args.String(0)
}

type MockSeatCounter struct {
	mock.Mock
}

func (m *MockSeatCounter) CountActive(ctx context.Context, clinicID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, clinicID)
	return args.Get(0).(int64), args.Error(1)
}
