// controllers/doctor_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinora/clinora_backend/models"
	"github.com/clinora/clinora_backend/repositories"
	"github.com/clinora/clinora_backend/services"
	"github.com/clinora/clinora_backend/utils"
)

// DoctorController manages a clinic's doctor roster. Every operation is
// scoped to the clinic in the caller's token; other tenants' doctors are
// indistinguishable from absent ones.
type DoctorController struct {
	DB          *mongo.Database
	logger      *log.Logger
	doctors     repositories.DoctorRepository
	entitlement services.EntitlementService
}

// NewDoctorController creates a new doctor controller
func NewDoctorController(db *mongo.Database, catalog services.PlanCatalog) *DoctorController {
	clinics := repositories.NewClinicRepository(db)
	doctors := repositories.NewDoctorRepository(db)

	return &DoctorController{
		DB:          db,
		logger:      log.New(os.Stdout, "[DOCTOR] ", log.LstdFlags),
		doctors:     doctors,
		entitlement: services.NewEntitlementService(clinics, catalog, doctors),
	}
}

func (dc *DoctorController) clinicFromToken(c echo.Context) (primitive.ObjectID, bool) {
	clinicID, err := utils.GetClinicIDFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
		return primitive.NilObjectID, false
	}
	return clinicID, true
}

func sanitizeDoctorRequest(req *models.DoctorRequest) error {
	req.FullName = utils.SanitizeInput(req.FullName)
	req.Specialty = utils.SanitizeInput(req.Specialty)
	req.LicenseNo = utils.SanitizeInput(req.LicenseNo)

	if req.Email != "" {
		email, err := utils.SanitizeEmail(req.Email)
		if err != nil {
			return err
		}
		req.Email = email
	}
	if req.Phone != "" {
		phone, err := utils.SanitizePhone(req.Phone)
		if err != nil {
			return err
		}
		req.Phone = phone
	}
	return nil
}

// CreateDoctor adds a doctor to the roster. The subscription must be active
// and have a seat left; the entitlement check runs right before the insert.
func (dc *DoctorController) CreateDoctor(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, ok := dc.clinicFromToken(c)
	if !ok {
		return nil
	}

	var req models.DoctorRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	if err := sanitizeDoctorRequest(&req); err != nil {
		return respondBadRequest(c, err.Error())
	}

	// Check-then-insert without reservation: two concurrent adds at the
	// last seat can both pass. The overshoot is accepted; the next add is
	// blocked.
	if err := dc.entitlement.AssertCanAddDoctor(ctx, clinicID); err != nil {
		return respondError(c, err)
	}

	doctor := &models.Doctor{
		ClinicID:  clinicID,
		FullName:  req.FullName,
		Specialty: req.Specialty,
		Email:     req.Email,
		Phone:     req.Phone,
		LicenseNo: req.LicenseNo,
	}
	if _, err := dc.doctors.Insert(ctx, doctor); err != nil {
		return respondError(c, err)
	}

	dc.logger.Printf("Doctor %s added to clinic %s", doctor.ID.Hex(), clinicID.Hex())
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Doctor added successfully",
		Data:    doctor,
	})
}

// GetDoctors lists the clinic's active doctors, optionally filtered by
// specialty.
func (dc *DoctorController) GetDoctors(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, ok := dc.clinicFromToken(c)
	if !ok {
		return nil
	}

	specialty := utils.SanitizeInput(c.QueryParam("specialty"))
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)

	doctors, total, err := dc.doctors.ListByClinic(ctx, clinicID, specialty, page, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Doctors retrieved successfully",
		Data: map[string]interface{}{
			"doctors": doctors,
			"total":   total,
		},
	})
}

// GetDoctor fetches one of the clinic's doctors.
func (dc *DoctorController) GetDoctor(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, ok := dc.clinicFromToken(c)
	if !ok {
		return nil
	}

	doctorID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return respondBadRequest(c, "Invalid doctor ID")
	}

	doctor, err := dc.doctors.FindByID(ctx, doctorID, clinicID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return respondError(c, services.NotFoundError(services.CodeDoctorNotFound, "doctor not found"))
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Doctor retrieved successfully",
		Data:    doctor,
	})
}

// UpdateDoctor edits an active doctor's details. Archived doctors cannot be
// edited.
func (dc *DoctorController) UpdateDoctor(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, ok := dc.clinicFromToken(c)
	if !ok {
		return nil
	}

	doctorID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return respondBadRequest(c, "Invalid doctor ID")
	}

	var req models.DoctorRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	if err := sanitizeDoctorRequest(&req); err != nil {
		return respondBadRequest(c, err.Error())
	}

	doctor, err := dc.doctors.Update(ctx, doctorID, clinicID, req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return respondError(c, services.NotFoundError(services.CodeDoctorNotFound, "doctor not found"))
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Doctor updated successfully",
		Data:    doctor,
	})
}

// DeleteDoctor archives a doctor, freeing their seat. The record stays for
// history; archiving twice reports not found.
func (dc *DoctorController) DeleteDoctor(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clinicID, ok := dc.clinicFromToken(c)
	if !ok {
		return nil
	}

	doctorID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return respondBadRequest(c, "Invalid doctor ID")
	}

	doctor, err := dc.doctors.Archive(ctx, doctorID, clinicID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return respondError(c, services.NotFoundError(services.CodeDoctorNotFound, "doctor not found"))
		}
		return respondError(c, err)
	}

	dc.logger.Printf("Doctor %s archived in clinic %s", doctorID.Hex(), clinicID.Hex())
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Doctor archived successfully",
		Data:    doctor,
	})
}
