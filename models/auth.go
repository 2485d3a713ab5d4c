// models/auth.go

package models

// RegisterClinicRequest signs up a clinic owner together with their clinic.
// The two documents are created as a unit; a half-created signup is rolled
// back.
type RegisterClinicRequest struct {
	FullName       string  `json:"fullName" validate:"required,min=2"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8"`
	Phone          string  `json:"phone,omitempty"`
	ClinicName     string  `json:"clinicName" validate:"required,min=2"`
	RegistrationID string  `json:"registrationId" validate:"required,min=3"`
	ClinicPhone    string  `json:"clinicPhone,omitempty"`
	Address        Address `json:"address,omitempty"`
}

// VerifyOTPRequest confirms the emailed verification code
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// ResendOTPRequest re-sends the verification code
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RefreshTokenRequest exchanges a refresh token for a new token pair
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// GoogleLoginRequest carries a Google ID token for owner sign-in
type GoogleLoginRequest struct {
	IDToken  string `json:"idToken" validate:"required"`
	FCMToken string `json:"fcmToken,omitempty"`
}

// ForgotPasswordRequest asks for a password reset code by email
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems an emailed reset code for a new password
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}
