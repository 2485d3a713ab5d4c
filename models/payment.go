// models/payment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment methods
const (
	PaymentMethodProvider = "PROVIDER"
	PaymentMethodManual   = "MANUAL"
)

// Payment statuses. Records only ever move PENDING -> COMPLETED,
// PENDING -> FAILED, or PENDING -> REJECTED (manual review).
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
	PaymentRejected  = "REJECTED"
)

// PaymentRecord is one row of the payment ledger. AmountMinor is the
// server-side canonical price in minor units; client-supplied amounts are
// never written here.
type PaymentRecord struct {
	ID                primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ClinicID          primitive.ObjectID  `json:"clinicId" bson:"clinicId"`
	PlanCode          string              `json:"planCode" bson:"planCode"`
	BillingCycle      string              `json:"billingCycle" bson:"billingCycle"`
	AmountMinor       int64               `json:"amountMinor" bson:"amountMinor"`
	Currency          string              `json:"currency" bson:"currency"`
	Method            string              `json:"method" bson:"method"` // "PROVIDER", "MANUAL"
	Status            string              `json:"status" bson:"status"`
	ProviderOrderID   string              `json:"providerOrderId,omitempty" bson:"providerOrderId,omitempty"`
	ProviderPaymentID string              `json:"providerPaymentId,omitempty" bson:"providerPaymentId,omitempty"`
	ProviderSignature string              `json:"-" bson:"providerSignature,omitempty"`
	Receipt           string              `json:"receipt,omitempty" bson:"receipt,omitempty"`
	TransactionRef    string              `json:"transactionRef,omitempty" bson:"transactionRef,omitempty"`
	ApprovedBy        *primitive.ObjectID `json:"approvedBy,omitempty" bson:"approvedBy,omitempty"`
	RejectedBy        *primitive.ObjectID `json:"rejectedBy,omitempty" bson:"rejectedBy,omitempty"`
	RejectionReason   string              `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	CreatedAt         time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt" bson:"updatedAt"`
	CompletedAt       *time.Time          `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// CheckoutRequest starts a provider payment. The body deliberately has no
// amount field; the price comes from the plan catalog.
type CheckoutRequest struct {
	PlanCode     string `json:"planCode" validate:"required"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly yearly"`
}

// CheckoutData is returned to the client to open the provider checkout
type CheckoutData struct {
	OrderID     string `json:"orderId"`
	AmountMinor int64  `json:"amountMinor"`
	Currency    string `json:"currency"`
	KeyID       string `json:"keyId"`
}

// ConfirmPaymentRequest is the client-side confirmation after checkout
type ConfirmPaymentRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// ManualPaymentRequest submits an offline bank transfer for admin review
type ManualPaymentRequest struct {
	PlanCode       string `json:"planCode" validate:"required"`
	BillingCycle   string `json:"billingCycle" validate:"required,oneof=monthly yearly"`
	TransactionRef string `json:"transactionRef" validate:"required,min=4"`
}

// RejectPaymentRequest carries the admin's rejection reason
type RejectPaymentRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}
