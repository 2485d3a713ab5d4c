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

type SubscriptionServiceTestSuite struct {
	suite.Suite
	clinics *MockClinicRepository
	service SubscriptionService
}

func (suite *SubscriptionServiceTestSuite) SetupTest() {
	suite.clinics = &MockClinicRepository{}
	suite.service = NewSubscriptionService(suite.clinics)
	suite.clinics.Test(suite.T())
}

func (suite *SubscriptionServiceTestSuite) TearDownTest() {
	suite.clinics.AssertExpectations(suite.T())
}

func TestSubscriptionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceTestSuite))
}

func clinicInStatus(status string) *models.Clinic {
	return &models.Clinic{
		ID:     primitive.NewObjectID(),
		UserID: primitive.NewObjectID(),
		Name:   "Lakeside Clinic",
		Subscription: models.Subscription{
			Status: status,
		},
	}
}

func (suite *SubscriptionServiceTestSuite) TestMarkVerified_MovesToPendingPayment() {
	ctx := context.Background()
	clinic := clinicInStatus(models.SubscriptionPendingPayment)

	suite.clinics.On("UpdateStatusFrom", ctx, clinic.ID,
		[]string{models.SubscriptionPendingVerification}, models.SubscriptionPendingPayment).
		Return(clinic, nil)

	result, err := suite.service.MarkVerified(ctx, clinic.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.SubscriptionPendingPayment, result.Subscription.Status)
}

func (suite *SubscriptionServiceTestSuite) TestMarkVerified_RepeatedCallIsNoOp() {
	// Second verification click: the conditional update matches nothing and
	// the current clinic is returned unchanged.
	ctx := context.Background()
	clinic := clinicInStatus(models.SubscriptionActive)

	suite.clinics.On("UpdateStatusFrom", ctx, clinic.ID,
		[]string{models.SubscriptionPendingVerification}, models.SubscriptionPendingPayment).
		Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByID", ctx, clinic.ID).Return(clinic, nil)

	result, err := suite.service.MarkVerified(ctx, clinic.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.SubscriptionActive, result.Subscription.Status)
}

func (suite *SubscriptionServiceTestSuite) TestMarkVerified_ClinicNotFound() {
	ctx := context.Background()
	clinicID := primitive.NewObjectID()

	suite.clinics.On("UpdateStatusFrom", ctx, clinicID,
		[]string{models.SubscriptionPendingVerification}, models.SubscriptionPendingPayment).
		Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByID", ctx, clinicID).Return(nil, mongo.ErrNoDocuments)

	_, err := suite.service.MarkVerified(ctx, clinicID)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeClinicNotFound))
}

func (suite *SubscriptionServiceTestSuite) TestActivate_StampsSubscription() {
	ctx := context.Background()
	clinicID := primitive.NewObjectID()
	recordID := primitive.NewObjectID()

	activation := Activation{
		PlanCode:          models.PlanCodePro,
		BillingCycle:      models.CycleMonthly,
		PaymentRecordID:   recordID,
		ProviderOrderID:   "order_123",
		ProviderPaymentID: "pay_456",
	}

	activated := clinicInStatus(models.SubscriptionActive)
	activated.ID = clinicID

	suite.clinics.On("ActivateSubscription", ctx, clinicID,
		[]string{models.SubscriptionPendingPayment, models.SubscriptionPastDue, models.SubscriptionCanceled},
		mock.AnythingOfType("models.Subscription")).
		Return(activated, nil).
		Run(func(args mock.Arguments) {
			sub := args.Get(3).(models.Subscription)
			assert.Equal(suite.T(), models.SubscriptionActive, sub.Status)
			assert.Equal(suite.T(), models.PlanCodePro, sub.PlanCode)
			assert.Equal(suite.T(), models.CycleMonthly, sub.BillingCycle)
			assert.Equal(suite.T(), "order_123", sub.ProviderOrderID)
			assert.Equal(suite.T(), "pay_456", sub.ProviderPaymentID)
			assert.NotNil(suite.T(), sub.PaymentRecordID)
			assert.Equal(suite.T(), recordID, *sub.PaymentRecordID)
			assert.NotNil(suite.T(), sub.ActivatedAt)
		})

	result, err := suite.service.Activate(ctx, clinicID, activation)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.SubscriptionActive, result.Subscription.Status)
}

func (suite *SubscriptionServiceTestSuite) TestActivate_SamePaymentTwiceIsNoOp() {
	ctx := context.Background()
	clinicID := primitive.NewObjectID()
	recordID := primitive.NewObjectID()

	already := clinicInStatus(models.SubscriptionActive)
	already.ID = clinicID
	already.Subscription.PaymentRecordID = &recordID

	suite.clinics.On("ActivateSubscription", ctx, clinicID, mock.Anything, mock.Anything).
		Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByID", ctx, clinicID).Return(already, nil)

	result, err := suite.service.Activate(ctx, clinicID, Activation{
		PlanCode:        models.PlanCodePro,
		BillingCycle:    models.CycleMonthly,
		PaymentRecordID: recordID,
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.SubscriptionActive, result.Subscription.Status)
}

func (suite *SubscriptionServiceTestSuite) TestActivate_FromPendingVerificationRejected() {
	// Activation must never skip email verification.
	ctx := context.Background()
	clinicID := primitive.NewObjectID()

	unverified := clinicInStatus(models.SubscriptionPendingVerification)
	unverified.ID = clinicID

	suite.clinics.On("ActivateSubscription", ctx, clinicID, mock.Anything, mock.Anything).
		Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByID", ctx, clinicID).Return(unverified, nil)

	_, err := suite.service.Activate(ctx, clinicID, Activation{
		PlanCode:        models.PlanCodePro,
		BillingCycle:    models.CycleMonthly,
		PaymentRecordID: primitive.NewObjectID(),
	})
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeInvalidTransition))
	assert.Equal(suite.T(), 409, HTTPStatus(err))
}

func (suite *SubscriptionServiceTestSuite) TestActivate_ReactivatesCanceledWithNewPayment() {
	ctx := context.Background()
	clinicID := primitive.NewObjectID()

	reactivated := clinicInStatus(models.SubscriptionActive)
	reactivated.ID = clinicID

	suite.clinics.On("ActivateSubscription", ctx, clinicID,
		[]string{models.SubscriptionPendingPayment, models.SubscriptionPastDue, models.SubscriptionCanceled},
		mock.Anything).
		Return(reactivated, nil)

	result, err := suite.service.Activate(ctx, clinicID, Activation{
		PlanCode:        models.PlanCodeProfessional,
		BillingCycle:    models.CycleYearly,
		PaymentRecordID: primitive.NewObjectID(),
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.SubscriptionActive, result.Subscription.Status)
}

func (suite *SubscriptionServiceTestSuite) TestMarkPastDue_FromActive() {
	ctx := context.Background()
	clinic := clinicInStatus(models.SubscriptionPastDue)

	suite.clinics.On("UpdateStatusFrom", ctx, clinic.ID,
		[]string{models.SubscriptionActive}, models.SubscriptionPastDue).
		Return(clinic, nil)

	result, err := suite.service.MarkPastDue(ctx, clinic.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.SubscriptionPastDue, result.Subscription.Status)
}

func (suite *SubscriptionServiceTestSuite) TestMarkPastDue_OnlyFromActive() {
	ctx := context.Background()
	clinicID := primitive.NewObjectID()

	pending := clinicInStatus(models.SubscriptionPendingPayment)
	pending.ID = clinicID

	suite.clinics.On("UpdateStatusFrom", ctx, clinicID,
		[]string{models.SubscriptionActive}, models.SubscriptionPastDue).
		Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByID", ctx, clinicID).Return(pending, nil)

	_, err := suite.service.MarkPastDue(ctx, clinicID)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeInvalidTransition))

	de, _ := AsDomainError(err)
	assert.Equal(suite.T(), models.SubscriptionPendingPayment, de.Meta["status"])
}

func (suite *SubscriptionServiceTestSuite) TestCancel_FromActive() {
	ctx := context.Background()
	clinic := clinicInStatus(models.SubscriptionCanceled)

	suite.clinics.On("CancelSubscription", ctx, clinic.ID,
		[]string{
			models.SubscriptionPendingVerification,
			models.SubscriptionPendingPayment,
			models.SubscriptionActive,
			models.SubscriptionPastDue,
		}).
		Return(clinic, nil)

	result, err := suite.service.Cancel(ctx, clinic.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.SubscriptionCanceled, result.Subscription.Status)
}

func (suite *SubscriptionServiceTestSuite) TestCancel_AlreadyCanceled() {
	ctx := context.Background()
	clinicID := primitive.NewObjectID()

	canceled := clinicInStatus(models.SubscriptionCanceled)
	canceled.ID = clinicID

	suite.clinics.On("CancelSubscription", ctx, clinicID, mock.Anything).
		Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByID", ctx, clinicID).Return(canceled, nil)

	_, err := suite.service.Cancel(ctx, clinicID)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeInvalidTransition))
}
