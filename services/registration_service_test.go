package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinora/clinora_backend/models"
)

type RegistrationServiceTestSuite struct {
	suite.Suite
	users   *MockUserRepository
	clinics *MockClinicRepository
	service RegistrationService
}

func (suite *RegistrationServiceTestSuite) SetupTest() {
	suite.users = &MockUserRepository{}
	suite.clinics = &MockClinicRepository{}
	suite.service = NewRegistrationService(suite.users, suite.clinics)

	suite.users.Test(suite.T())
	suite.clinics.Test(suite.T())
}

func (suite *RegistrationServiceTestSuite) TearDownTest() {
	suite.users.AssertExpectations(suite.T())
	suite.clinics.AssertExpectations(suite.T())
}

func TestRegistrationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceTestSuite))
}

func validRegisterRequest() models.RegisterClinicRequest {
	return models.RegisterClinicRequest{
		FullName:       "Dr. Meera Shah",
		Email:          "meera@lakeside.example",
		Password:       "correct horse battery",
		Phone:          "+91 98765 43210",
		ClinicName:     "Lakeside Clinic",
		RegistrationID: "MH-CLN-2024-0042",
	}
}

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
}

func (suite *RegistrationServiceTestSuite) TestRegisterClinic_CreatesOwnerAndClinic() {
	ctx := context.Background()
	req := validRegisterRequest()
	req.Email = "  Meera@Lakeside.Example "
	userID := primitive.NewObjectID()

	suite.users.On("FindByEmail", ctx, "meera@lakeside.example").Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByRegistrationID", ctx, req.RegistrationID).Return(nil, mongo.ErrNoDocuments)
	suite.users.On("Insert", ctx, mock.AnythingOfType("*models.User")).
		Return(userID, nil).
		Run(func(args mock.Arguments) {
			user := args.Get(1).(*models.User)
			assert.Equal(suite.T(), "meera@lakeside.example", user.Email)
			assert.Equal(suite.T(), models.RoleOwner, user.Role)
			assert.True(suite.T(), user.IsActive)
			assert.NotNil(suite.T(), user.ClinicID)
			// Stored credential must be a working bcrypt hash, never the raw password.
			assert.NotEqual(suite.T(), req.Password, user.Password)
			assert.NoError(suite.T(), bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("correct horse battery")))
		})
	suite.clinics.On("Insert", ctx, mock.AnythingOfType("*models.Clinic")).
		Return(primitive.NewObjectID(), nil).
		Run(func(args mock.Arguments) {
			clinic := args.Get(1).(*models.Clinic)
			assert.Equal(suite.T(), userID, clinic.UserID)
			assert.Equal(suite.T(), "Lakeside Clinic", clinic.Name)
			assert.Equal(suite.T(), "MH-CLN-2024-0042", clinic.RegistrationID)
			assert.Equal(suite.T(), models.SubscriptionPendingVerification, clinic.Subscription.Status)
		})

	user, clinic, err := suite.service.RegisterClinic(ctx, req)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), user)
	assert.NotNil(suite.T(), clinic)
	// The user document is born pointing at its clinic.
	assert.Equal(suite.T(), clinic.ID, *user.ClinicID)
	assert.False(suite.T(), clinic.ID.IsZero())
}

func (suite *RegistrationServiceTestSuite) TestRegisterClinic_EmailTaken() {
	ctx := context.Background()
	req := validRegisterRequest()

	existing := &models.User{ID: primitive.NewObjectID(), Email: req.Email}
	suite.users.On("FindByEmail", ctx, req.Email).Return(existing, nil)

	_, _, err := suite.service.RegisterClinic(ctx, req)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeEmailTaken))
	assert.Equal(suite.T(), 409, HTTPStatus(err))
	suite.users.AssertNotCalled(suite.T(), "Insert", mock.Anything, mock.Anything)
}

func (suite *RegistrationServiceTestSuite) TestRegisterClinic_RegistrationIDTaken() {
	ctx := context.Background()
	req := validRegisterRequest()

	suite.users.On("FindByEmail", ctx, req.Email).Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByRegistrationID", ctx, req.RegistrationID).
		Return(&models.Clinic{ID: primitive.NewObjectID()}, nil)

	_, _, err := suite.service.RegisterClinic(ctx, req)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeRegistrationIDTaken))
	suite.users.AssertNotCalled(suite.T(), "Insert", mock.Anything, mock.Anything)
}

func (suite *RegistrationServiceTestSuite) TestRegisterClinic_EmailRaceMapsDuplicateKey() {
	// Two signups with the same email pass the pre-check together; the unique
	// index catches the loser.
	ctx := context.Background()
	req := validRegisterRequest()

	suite.users.On("FindByEmail", ctx, req.Email).Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByRegistrationID", ctx, req.RegistrationID).Return(nil, mongo.ErrNoDocuments)
	suite.users.On("Insert", ctx, mock.Anything).Return(primitive.NilObjectID, duplicateKeyErr())

	_, _, err := suite.service.RegisterClinic(ctx, req)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeEmailTaken))
	suite.clinics.AssertNotCalled(suite.T(), "Insert", mock.Anything, mock.Anything)
}

func (suite *RegistrationServiceTestSuite) TestRegisterClinic_ClinicInsertFailureRollsBackUser() {
	ctx := context.Background()
	req := validRegisterRequest()
	userID := primitive.NewObjectID()

	suite.users.On("FindByEmail", ctx, req.Email).Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByRegistrationID", ctx, req.RegistrationID).Return(nil, mongo.ErrNoDocuments)
	suite.users.On("Insert", ctx, mock.Anything).Return(userID, nil)
	suite.clinics.On("Insert", ctx, mock.Anything).Return(primitive.NilObjectID, errors.New("write conflict"))
	suite.users.On("Delete", ctx, userID).Return(nil)

	_, _, err := suite.service.RegisterClinic(ctx, req)
	assert.Error(suite.T(), err)
	assert.EqualError(suite.T(), err, "write conflict")
}

func (suite *RegistrationServiceTestSuite) TestRegisterClinic_RegistrationIDRaceRollsBackAndMaps() {
	ctx := context.Background()
	req := validRegisterRequest()
	userID := primitive.NewObjectID()

	suite.users.On("FindByEmail", ctx, req.Email).Return(nil, mongo.ErrNoDocuments)
	suite.clinics.On("FindByRegistrationID", ctx, req.RegistrationID).Return(nil, mongo.ErrNoDocuments)
	suite.users.On("Insert", ctx, mock.Anything).Return(userID, nil)
	suite.clinics.On("Insert", ctx, mock.Anything).Return(primitive.NilObjectID, duplicateKeyErr())
	suite.users.On("Delete", ctx, userID).Return(nil)

	_, _, err := suite.service.RegisterClinic(ctx, req)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), IsCode(err, CodeRegistrationIDTaken))
}
