// services/errors.go
package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a domain error. The set is closed; controllers map
// kinds to HTTP statuses and never invent new ones ad hoc.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindForbidden  ErrorKind = "forbidden"
	KindUpstream   ErrorKind = "upstream"
	KindState      ErrorKind = "state"
)

// Stable error codes carried to clients
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeEmailTaken           = "EMAIL_TAKEN"
	CodeRegistrationIDTaken  = "REGISTRATION_ID_TAKEN"
	CodePlanCodeTaken        = "PLAN_CODE_TAKEN"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeClinicNotFound       = "CLINIC_NOT_FOUND"
	CodePlanNotFound         = "PLAN_NOT_FOUND"
	CodeDoctorNotFound       = "DOCTOR_NOT_FOUND"
	CodePaymentNotFound      = "PAYMENT_NOT_FOUND"
	CodeSubscriptionInactive = "SUBSCRIPTION_INACTIVE"
	CodeSeatLimitReached     = "SEAT_LIMIT_REACHED"
	CodeSignatureMismatch    = "SIGNATURE_MISMATCH"
	CodeTenantMismatch       = "TENANT_MISMATCH"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodePaymentNotPending    = "PAYMENT_NOT_PENDING"
	CodeOrderCreationFailed  = "ORDER_CREATION_FAILED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeEmailNotVerified     = "EMAIL_NOT_VERIFIED"
	CodeOTPInvalid           = "OTP_INVALID"
	CodeOTPExpired           = "OTP_EXPIRED"
	CodeTooManyAttempts      = "TOO_MANY_ATTEMPTS"
)

// DomainError is the single error type crossing the services boundary.
// Message is safe for clients; the wrapped cause is for logs only.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Meta    map[string]interface{}
	err     error
}

func (e *DomainError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.err
}

// WithMeta attaches structured detail for the HTTP payload (plan name, seat
// limit, ...). Returns the same error for chaining.
func (e *DomainError) WithMeta(key string, value interface{}) *DomainError {
	if e.Meta == nil {
		e.Meta = map[string]interface{}{}
	}
	e.Meta[key] = value
	return e
}

// WithCause wraps an underlying error without leaking it to clients
func (e *DomainError) WithCause(err error) *DomainError {
	e.err = err
	return e
}

func newError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

func ValidationError(code, message string) *DomainError {
	return newError(KindValidation, code, message)
}

func NotFoundError(code, message string) *DomainError {
	return newError(KindNotFound, code, message)
}

func ConflictError(code, message string) *DomainError {
	return newError(KindConflict, code, message)
}

func ForbiddenError(code, message string) *DomainError {
	return newError(KindForbidden, code, message)
}

func UpstreamError(code, message string) *DomainError {
	return newError(KindUpstream, code, message)
}

func StateError(code, message string) *DomainError {
	return newError(KindState, code, message)
}

// AsDomainError unwraps err into a *DomainError if one is in the chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HTTPStatus maps a domain error kind to its HTTP status. Unknown errors are
// internal server errors.
func HTTPStatus(err error) int {
	de, ok := AsDomainError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch de.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindState:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsCode reports whether err is a domain error with the given stable code
func IsCode(err error, code string) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == code
}
