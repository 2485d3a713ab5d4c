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

type PlanRepository interface {
	FindActiveByCode(ctx context.Context, code string) (*models.Plan, error)
	FindByCode(ctx context.Context, code string) (*models.Plan, error)
	ListActive(ctx context.Context) ([]models.Plan, error)
	ListAll(ctx context.Context) ([]models.Plan, error)
	Insert(ctx context.Context, plan *models.Plan) error
	UpdateByCode(ctx context.Context, code string, set bson.M) (*models.Plan, error)
	SetActive(ctx context.Context, code string, active bool) (*models.Plan, error)
	UpsertSeed(ctx context.Context, plan models.Plan) error
}

type planRepository struct {
	collection *mongo.Collection
}

func NewPlanRepository(db *mongo.Database) PlanRepository {
	return &planRepository{
		collection: db.Collection("subscription_plans"),
	}
}

func (r *planRepository) FindActiveByCode(ctx context.Context, code string) (*models.Plan, error) {
	var plan models.Plan
	filter := bson.M{"code": code, "isActive": true}
	if err := r.collection.FindOne(ctx, filter).Decode(&plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) FindByCode(ctx context.Context, code string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) ListActive(ctx context.Context) ([]models.Plan, error) {
	return r.list(ctx, bson.M{"isActive": true})
}

func (r *planRepository) ListAll(ctx context.Context) ([]models.Plan, error) {
	return r.list(ctx, bson.M{})
}

func (r *planRepository) list(ctx context.Context, filter bson.M) ([]models.Plan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "monthlyPriceMinor", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []models.Plan
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *planRepository) Insert(ctx context.Context, plan *models.Plan) error {
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		plan.ID = id
	}
	return nil
}

func (r *planRepository) UpdateByCode(ctx context.Context, code string, set bson.M) (*models.Plan, error) {
	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var plan models.Plan
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"code": code}, bson.M{"$set": set}, opts).Decode(&plan)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) SetActive(ctx context.Context, code string, active bool) (*models.Plan, error) {
	return r.UpdateByCode(ctx, code, bson.M{"isActive": active})
}

// UpsertSeed installs a default plan without clobbering admin edits: only the
// insert branch writes the full document.
func (r *planRepository) UpsertSeed(ctx context.Context, plan models.Plan) error {
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	update := bson.M{"$setOnInsert": plan}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"code": plan.Code}, update, opts)
	return err
}
