package repositories

import (
	"context"
	"time"

	"github.com/clinora/clinora_backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DoctorRepository interface {
	Insert(ctx context.Context, doctor *models.Doctor) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id, clinicID primitive.ObjectID) (*models.Doctor, error)
	Update(ctx context.Context, id, clinicID primitive.ObjectID, req models.DoctorRequest) (*models.Doctor, error)
	Archive(ctx context.Context, id, clinicID primitive.ObjectID) (*models.Doctor, error)
	ListByClinic(ctx context.Context, clinicID primitive.ObjectID, specialty string, page, limit int64) ([]models.Doctor, int64, error)
	CountActive(ctx context.Context, clinicID primitive.ObjectID) (int64, error)
}

type doctorRepository struct {
	collection *mongo.Collection
}

func NewDoctorRepository(db *mongo.Database) DoctorRepository {
	return &doctorRepository{
		collection: db.Collection("doctors"),
	}
}

func (r *doctorRepository) Insert(ctx context.Context, doctor *models.Doctor) (primitive.ObjectID, error) {
	now := time.Now()
	doctor.CreatedAt = now
	doctor.UpdatedAt = now
	doctor.Archived = false
	res, err := r.collection.InsertOne(ctx, doctor)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	doctor.ID = id
	return id, nil
}

func (r *doctorRepository) FindByID(ctx context.Context, id, clinicID primitive.ObjectID) (*models.Doctor, error) {
	var doctor models.Doctor
	filter := bson.M{"_id": id, "clinicId": clinicID}
	if err := r.collection.FindOne(ctx, filter).Decode(&doctor); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, id, clinicID primitive.ObjectID, req models.DoctorRequest) (*models.Doctor, error) {
	filter := bson.M{"_id": id, "clinicId": clinicID, "archived": false}
	update := bson.M{
		"$set": bson.M{
			"fullName":  req.FullName,
			"specialty": req.Specialty,
			"email":     req.Email,
			"phone":     req.Phone,
			"licenseNo": req.LicenseNo,
			"updatedAt": time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doctor models.Doctor
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doctor); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// Archive is a soft delete; the archived filter makes it idempotent-safe and
// frees the seat for the clinic's limit.
func (r *doctorRepository) Archive(ctx context.Context, id, clinicID primitive.ObjectID) (*models.Doctor, error) {
	now := time.Now()
	filter := bson.M{"_id": id, "clinicId": clinicID, "archived": false}
	update := bson.M{
		"$set": bson.M{
			"archived":   true,
			"archivedAt": now,
			"updatedAt":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doctor models.Doctor
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doctor); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) ListByClinic(ctx context.Context, clinicID primitive.ObjectID, specialty string, page, limit int64) ([]models.Doctor, int64, error) {
	filter := bson.M{"clinicId": clinicID, "archived": false}
	if specialty != "" {
		filter["specialty"] = specialty
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, 0, err
	}
	return doctors, total, nil
}

// CountActive backs the seat-limit check; archived doctors do not occupy a
// seat.
func (r *doctorRepository) CountActive(ctx context.Context, clinicID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"clinicId": clinicID, "archived": false})
}
