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

type PaymentRepository interface {
	Insert(ctx context.Context, record *models.PaymentRecord) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentRecord, error)
	FindByProviderOrderID(ctx context.Context, orderID string) (*models.PaymentRecord, error)
	CompleteProviderPayment(ctx context.Context, id primitive.ObjectID, paymentID, signature string) (*models.PaymentRecord, error)
	CompleteManualPayment(ctx context.Context, id primitive.ObjectID, approvedBy primitive.ObjectID) (*models.PaymentRecord, error)
	RejectManualPayment(ctx context.Context, id primitive.ObjectID, rejectedBy primitive.ObjectID, reason string) (*models.PaymentRecord, error)
	MarkFailed(ctx context.Context, id primitive.ObjectID) (*models.PaymentRecord, error)
	ListByClinic(ctx context.Context, clinicID primitive.ObjectID, page, limit int64) ([]models.PaymentRecord, int64, error)
	ListPendingManual(ctx context.Context) ([]models.PaymentRecord, error)
}

type paymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) PaymentRepository {
	return &paymentRepository{
		collection: db.Collection("payment_records"),
	}
}

func (r *paymentRepository) Insert(ctx context.Context, record *models.PaymentRecord) (primitive.ObjectID, error) {
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	record.ID = id
	return id, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRepository) FindByProviderOrderID(ctx context.Context, orderID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.collection.FindOne(ctx, bson.M{"providerOrderId": orderID}).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// CompleteProviderPayment is the atomic PENDING -> COMPLETED step. The status
// filter guarantees exactly one of any number of concurrent confirmations
// writes the completion; losers get mongo.ErrNoDocuments.
func (r *paymentRepository) CompleteProviderPayment(ctx context.Context, id primitive.ObjectID, paymentID, signature string) (*models.PaymentRecord, error) {
	now := time.Now()
	filter := bson.M{
		"_id":    id,
		"status": models.PaymentPending,
	}
	update := bson.M{
		"$set": bson.M{
			"status":            models.PaymentCompleted,
			"providerPaymentId": paymentID,
			"providerSignature": signature,
			"completedAt":       now,
			"updatedAt":         now,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record models.PaymentRecord
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRepository) CompleteManualPayment(ctx context.Context, id primitive.ObjectID, approvedBy primitive.ObjectID) (*models.PaymentRecord, error) {
	now := time.Now()
	filter := bson.M{
		"_id":    id,
		"status": models.PaymentPending,
		"method": models.PaymentMethodManual,
	}
	update := bson.M{
		"$set": bson.M{
			"status":      models.PaymentCompleted,
			"approvedBy":  approvedBy,
			"completedAt": now,
			"updatedAt":   now,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record models.PaymentRecord
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRepository) RejectManualPayment(ctx context.Context, id primitive.ObjectID, rejectedBy primitive.ObjectID, reason string) (*models.PaymentRecord, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.PaymentPending,
		"method": models.PaymentMethodManual,
	}
	update := bson.M{
		"$set": bson.M{
			"status":          models.PaymentRejected,
			"rejectedBy":      rejectedBy,
			"rejectionReason": reason,
			"updatedAt":       time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record models.PaymentRecord
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkFailed only fires while the record is still PENDING; a completed
// payment is never downgraded.
func (r *paymentRepository) MarkFailed(ctx context.Context, id primitive.ObjectID) (*models.PaymentRecord, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.PaymentPending,
	}
	update := bson.M{
		"$set": bson.M{
			"status":    models.PaymentFailed,
			"updatedAt": time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record models.PaymentRecord
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRepository) ListByClinic(ctx context.Context, clinicID primitive.ObjectID, page, limit int64) ([]models.PaymentRecord, int64, error) {
	filter := bson.M{"clinicId": clinicID}

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

	var records []models.PaymentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *paymentRepository) ListPendingManual(ctx context.Context) ([]models.PaymentRecord, error) {
	filter := bson.M{
		"status": models.PaymentPending,
		"method": models.PaymentMethodManual,
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.PaymentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
