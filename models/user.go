// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// User model. Owners belong to exactly one clinic; admins are platform staff
// with no clinic attached.
type User struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email         string              `json:"email" bson:"email"`
	Password      string              `json:"password,omitempty" bson:"password"`
	FullName      string              `json:"fullName" bson:"fullName"`
	Role          string              `json:"role" bson:"role"` // "owner", "admin"
	Phone         string              `json:"phone,omitempty" bson:"phone,omitempty"`
	ClinicID      *primitive.ObjectID `json:"clinicId,omitempty" bson:"clinicId,omitempty"`
	EmailVerified bool                `json:"emailVerified" bson:"emailVerified"`
	OTPInfo       *OTPInfo            `json:"-" bson:"otpInfo,omitempty"`
	GoogleID      string              `json:"googleId,omitempty" bson:"googleId,omitempty"`
	FCMToken      string              `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	IsActive      bool                `json:"isActive" bson:"isActive"`
	LastLoginAt   time.Time           `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// OTPInfo holds the pending email-verification code for a user
type OTPInfo struct {
	OTP       string    `json:"otp" bson:"otp"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// LoginRequest represents the login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginData is returned on successful authentication
type LoginData struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	User         User    `json:"user"`
	Clinic       *Clinic `json:"clinic,omitempty"`
}
