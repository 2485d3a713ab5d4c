// models/clinic.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription lifecycle states. A clinic starts in PENDING_VERIFICATION and
// only reaches ACTIVE through a completed payment. CANCELED is terminal except
// for reactivation by a new completed payment.
const (
	SubscriptionPendingVerification = "PENDING_VERIFICATION"
	SubscriptionPendingPayment      = "PENDING_PAYMENT"
	SubscriptionActive              = "ACTIVE"
	SubscriptionPastDue             = "PAST_DUE"
	SubscriptionCanceled            = "CANCELED"
)

// Subscription is the billing state embedded in the clinic document
type Subscription struct {
	PlanCode          string              `json:"planCode,omitempty" bson:"planCode,omitempty"`
	BillingCycle      string              `json:"billingCycle,omitempty" bson:"billingCycle,omitempty"`
	Status            string              `json:"status" bson:"status"`
	ProviderOrderID   string              `json:"providerOrderId,omitempty" bson:"providerOrderId,omitempty"`
	ProviderPaymentID string              `json:"providerPaymentId,omitempty" bson:"providerPaymentId,omitempty"`
	PaymentRecordID   *primitive.ObjectID `json:"paymentRecordId,omitempty" bson:"paymentRecordId,omitempty"`
	ActivatedAt       *time.Time          `json:"activatedAt,omitempty" bson:"activatedAt,omitempty"`
	CanceledAt        *time.Time          `json:"canceledAt,omitempty" bson:"canceledAt,omitempty"`
}

// Clinic is a tenant. All billing and doctor-directory data hangs off it.
type Clinic struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId"`
	Name           string             `json:"name" bson:"name"`
	RegistrationID string             `json:"registrationId" bson:"registrationId"`
	Phone          string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Address        Address            `json:"address,omitempty" bson:"address,omitempty"`
	Subscription   Subscription       `json:"subscription" bson:"subscription"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Address model
type Address struct {
	Street   string `json:"street,omitempty" bson:"street,omitempty"`
	City     string `json:"city,omitempty" bson:"city,omitempty"`
	District string `json:"district,omitempty" bson:"district,omitempty"`
	Country  string `json:"country,omitempty" bson:"country,omitempty"`
	ZipCode  string `json:"zipCode,omitempty" bson:"zipCode,omitempty"`
}

// SubscriptionTerminal reports whether a status permits no further transitions
// other than reactivation through a new payment.
func SubscriptionTerminal(status string) bool {
	return status == SubscriptionCanceled
}
