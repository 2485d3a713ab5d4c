package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/models"
)

type EntitlementServiceTestSuite struct {
	suite.Suite
	clinics *MockClinicRepository
	catalog *MockPlanCatalog
	seats   *MockSeatCounter
	service EntitlementService
}

func (suite *EntitlementServiceTestSuite) SetupTest() {
	suite.clinics = &MockClinicRepository{}
	suite.catalog = &MockPlanCatalog{}
	suite.seats = &MockSeatCounter{}
	suite.service = NewEntitlementService(suite.clinics, suite.catalog, suite.seats)

	suite.clinics.Test(suite.T())
	suite.catalog.Test(suite.T())
	suite.seats.Test(suite.T())
}

func (suite *EntitlementServiceTestSuite) TearDownTest() {
	suite.clinics.AssertExpectations(suite.T())
	suite.catalog.AssertExpectations(suite.T())
	suite.seats.AssertExpectations(suite.T())
}

func TestEntitlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EntitlementServiceTestSuite))
}

func activeClinic(planCode string) *models.Clinic {
	return &models.Clinic{
		ID:     primitive.NewObjectID(),
		UserID: primitive.NewObjectID(),
		Name:   "Sunrise Clinic",
		Subscription: models.Subscription{
			PlanCode: planCode,
			Status:   models.SubscriptionActive,
		},
	}
}

func (suite *EntitlementServiceTestSuite) TestAssertCanAddDoctor_ClinicNotFound() {
	ctx := context.Background()
	clinicID := primitive.NewObjectID()

	suite.clinics.On("FindByID", ctx, clinicID).Return(nil, mongo.ErrNoDocuments)

	err := suite.service.AssertCanAddDoctor(ctx, clinicID)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeClinicNotFound))
	assert.Equal(suite.T(), 404, HTTPStatus(err))
}

func (suite *EntitlementServiceTestSuite) TestAssertCanAddDoctor_InactiveSubscription() {
	ctx := context.Background()

	statuses := []string{
		models.SubscriptionPendingVerification,
		models.SubscriptionPendingPayment,
		models.SubscriptionPastDue,
		models.SubscriptionCanceled,
	}

	for _, status := range statuses {
		clinic := activeClinic(models.PlanCodePro)
		clinic.Subscription.Status = status

		suite.clinics.On("FindByID", ctx, clinic.ID).Return(clinic, nil).Once()

		err := suite.service.AssertCanAddDoctor(ctx, clinic.ID)
		assert.Error(suite.T(), err, "status %s must not pass", status)
		assert.True(suite.T(), IsCode(err, CodeSubscriptionInactive))
		assert.Equal(suite.T(), 403, HTTPStatus(err))

		de, ok := AsDomainError(err)
		assert.True(suite.T(), ok)
		assert.Equal(suite.T(), status, de.Meta["status"])
	}

	suite.catalog.AssertNotCalled(suite.T(), "ActivePlanByCode", mock.Anything, mock.Anything)
}

func (suite *EntitlementServiceTestSuite) TestAssertCanAddDoctor_PlanArchived() {
	ctx := context.Background()
	clinic := activeClinic(models.PlanCodePro)

	suite.clinics.On("FindByID", ctx, clinic.ID).Return(clinic, nil)
	suite.catalog.On("ActivePlanByCode", ctx, models.PlanCodePro).
		Return(nil, NotFoundError(CodePlanNotFound, "no active plan with code PRO"))

	err := suite.service.AssertCanAddDoctor(ctx, clinic.ID)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodePlanNotFound))
	suite.seats.AssertNotCalled(suite.T(), "CountActive", mock.Anything, mock.Anything)
}

func (suite *EntitlementServiceTestSuite) TestAssertCanAddDoctor_UnlimitedSkipsSeatCount() {
	ctx := context.Background()
	clinic := activeClinic(models.PlanCodeEnterprise)
	plan := &models.Plan{
		Code:        models.PlanCodeEnterprise,
		Name:        "Enterprise",
		DoctorLimit: models.UnlimitedDoctors,
		IsActive:    true,
	}

	suite.clinics.On("FindByID", ctx, clinic.ID).Return(clinic, nil)
	suite.catalog.On("ActivePlanByCode", ctx, models.PlanCodeEnterprise).Return(plan, nil)

	err := suite.service.AssertCanAddDoctor(ctx, clinic.ID)
	assert.NoError(suite.T(), err)

	// The whole point of the short-circuit: no count query for unlimited plans.
	suite.seats.AssertNotCalled(suite.T(), "CountActive", mock.Anything, mock.Anything)
}

func (suite *EntitlementServiceTestSuite) TestAssertCanAddDoctor_UnderLimit() {
	ctx := context.Background()
	clinic := activeClinic(models.PlanCodePro)
	plan := &models.Plan{Code: models.PlanCodePro, Name: "Pro", DoctorLimit: 3, IsActive: true}

	suite.clinics.On("FindByID", ctx, clinic.ID).Return(clinic, nil)
	suite.catalog.On("ActivePlanByCode", ctx, models.PlanCodePro).Return(plan, nil)
	suite.seats.On("CountActive", ctx, clinic.ID).Return(int64(2), nil)

	err := suite.service.AssertCanAddDoctor(ctx, clinic.ID)
	assert.NoError(suite.T(), err)
}

func (suite *EntitlementServiceTestSuite) TestAssertCanAddDoctor_AtLimit() {
	ctx := context.Background()
	clinic := activeClinic(models.PlanCodePro)
	plan := &models.Plan{Code: models.PlanCodePro, Name: "Pro", DoctorLimit: 3, IsActive: true}

	suite.clinics.On("FindByID", ctx, clinic.ID).Return(clinic, nil)
	suite.catalog.On("ActivePlanByCode", ctx, models.PlanCodePro).Return(plan, nil)
	suite.seats.On("CountActive", ctx, clinic.ID).Return(int64(3), nil)

	err := suite.service.AssertCanAddDoctor(ctx, clinic.ID)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeSeatLimitReached))
	assert.Equal(suite.T(), 409, HTTPStatus(err))

	de, ok := AsDomainError(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "Pro", de.Meta["plan"])
	assert.Equal(suite.T(), 3, de.Meta["limit"])
}

func (suite *EntitlementServiceTestSuite) TestAssertCanAddDoctor_OverLimit() {
	// A clinic that slipped past the soft limit is still blocked on the next add.
	ctx := context.Background()
	clinic := activeClinic(models.PlanCodePro)
	plan := &models.Plan{Code: models.PlanCodePro, Name: "Pro", DoctorLimit: 3, IsActive: true}

	suite.clinics.On("FindByID", ctx, clinic.ID).Return(clinic, nil)
	suite.catalog.On("ActivePlanByCode", ctx, models.PlanCodePro).Return(plan, nil)
	suite.seats.On("CountActive", ctx, clinic.ID).Return(int64(4), nil)

	err := suite.service.AssertCanAddDoctor(ctx, clinic.ID)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeSeatLimitReached))
}

func (suite *EntitlementServiceTestSuite) TestAssertCanAddDoctor_BoundaryOneSeatFree() {
	ctx := context.Background()
	clinic := activeClinic(models.PlanCodeProfessional)
	plan := &models.Plan{Code: models.PlanCodeProfessional, Name: "Professional", DoctorLimit: 10, IsActive: true}

	suite.clinics.On("FindByID", ctx, clinic.ID).Return(clinic, nil)
	suite.catalog.On("ActivePlanByCode", ctx, models.PlanCodeProfessional).Return(plan, nil)
	suite.seats.On("CountActive", ctx, clinic.ID).Return(int64(9), nil)

	err := suite.service.AssertCanAddDoctor(ctx, clinic.ID)
	assert.NoError(suite.T(), err)
}
