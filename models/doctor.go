// models/doctor.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Doctor is one practitioner in a clinic's directory. Archived doctors keep
// their history but stop counting against the plan's seat limit.
type Doctor struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ClinicID   primitive.ObjectID `json:"clinicId" bson:"clinicId"`
	FullName   string             `json:"fullName" bson:"fullName"`
	Specialty  string             `json:"specialty,omitempty" bson:"specialty,omitempty"`
	Email      string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone      string             `json:"phone,omitempty" bson:"phone,omitempty"`
	LicenseNo  string             `json:"licenseNo,omitempty" bson:"licenseNo,omitempty"`
	Archived   bool               `json:"archived" bson:"archived"`
	ArchivedAt *time.Time         `json:"archivedAt,omitempty" bson:"archivedAt,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// DoctorRequest represents the request body for creating/updating a doctor
type DoctorRequest struct {
	FullName  string `json:"fullName" validate:"required,min=2"`
	Specialty string `json:"specialty,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty"`
	LicenseNo string `json:"licenseNo,omitempty"`
}
