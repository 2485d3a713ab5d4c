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

type ClinicRepository interface {
	Insert(ctx context.Context, clinic *models.Clinic) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Clinic, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Clinic, error)
	FindByRegistrationID(ctx context.Context, registrationID string) (*models.Clinic, error)
	UpdateStatusFrom(ctx context.Context, id primitive.ObjectID, from []string, to string) (*models.Clinic, error)
	ActivateSubscription(ctx context.Context, id primitive.ObjectID, from []string, sub models.Subscription) (*models.Clinic, error)
	CancelSubscription(ctx context.Context, id primitive.ObjectID, from []string) (*models.Clinic, error)
	List(ctx context.Context, status string, page, limit int64) ([]models.Clinic, int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type clinicRepository struct {
	collection *mongo.Collection
}

func NewClinicRepository(db *mongo.Database) ClinicRepository {
	return &clinicRepository{
		collection: db.Collection("clinics"),
	}
}

func (r *clinicRepository) Insert(ctx context.Context, clinic *models.Clinic) (primitive.ObjectID, error) {
	now := time.Now()
	clinic.CreatedAt = now
	clinic.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, clinic)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	clinic.ID = id
	return id, nil
}

func (r *clinicRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Clinic, error) {
	var clinic models.Clinic
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&clinic); err != nil {
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Clinic, error) {
	var clinic models.Clinic
	if err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&clinic); err != nil {
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepository) FindByRegistrationID(ctx context.Context, registrationID string) (*models.Clinic, error) {
	var clinic models.Clinic
	if err := r.collection.FindOne(ctx, bson.M{"registrationId": registrationID}).Decode(&clinic); err != nil {
		return nil, err
	}
	return &clinic, nil
}

// UpdateStatusFrom moves the subscription status in a single conditional
// update. The filter on the current status is what makes concurrent
// transitions safe: only one caller can win the update, the rest see
// mongo.ErrNoDocuments and must re-read.
func (r *clinicRepository) UpdateStatusFrom(ctx context.Context, id primitive.ObjectID, from []string, to string) (*models.Clinic, error) {
	filter := bson.M{
		"_id":                 id,
		"subscription.status": bson.M{"$in": from},
	}
	update := bson.M{
		"$set": bson.M{
			"subscription.status": to,
			"updatedAt":           time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var clinic models.Clinic
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&clinic); err != nil {
		return nil, err
	}
	return &clinic, nil
}

// ActivateSubscription stamps the whole subscription sub-document, guarded by
// the same conditional-status filter as UpdateStatusFrom.
func (r *clinicRepository) ActivateSubscription(ctx context.Context, id primitive.ObjectID, from []string, sub models.Subscription) (*models.Clinic, error) {
	filter := bson.M{
		"_id":                 id,
		"subscription.status": bson.M{"$in": from},
	}
	update := bson.M{
		"$set": bson.M{
			"subscription": sub,
			"updatedAt":    time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var clinic models.Clinic
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&clinic); err != nil {
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepository) CancelSubscription(ctx context.Context, id primitive.ObjectID, from []string) (*models.Clinic, error) {
	now := time.Now()
	filter := bson.M{
		"_id":                 id,
		"subscription.status": bson.M{"$in": from},
	}
	update := bson.M{
		"$set": bson.M{
			"subscription.status":     models.SubscriptionCanceled,
			"subscription.canceledAt": now,
			"updatedAt":               now,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var clinic models.Clinic
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&clinic); err != nil {
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepository) List(ctx context.Context, status string, page, limit int64) ([]models.Clinic, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["subscription.status"] = status
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

	var clinics []models.Clinic
	if err := cursor.All(ctx, &clinics); err != nil {
		return nil, 0, err
	}
	return clinics, total, nil
}

func (r *clinicRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
