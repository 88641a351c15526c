package mongo

import (
	"context"
	"errors"
	"time"

	"fitstudio/roster-app/internal/domain"
	"fitstudio/roster-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planCollectionName = "session_plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new SessionPlan repository backed by MongoDB.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// GetBySessionID retrieves the last-saved plan for a session.
func (r *mongoPlanRepository) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) (*domain.SessionPlan, error) {
	var plan domain.SessionPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Replace stores the plan as the durable version for its session, creating the
// document if it does not exist yet. Last write wins; Save() in the plan store
// is an idempotent replace by design.
func (r *mongoPlanRepository) Replace(ctx context.Context, plan *domain.SessionPlan) error {
	if plan.SessionID == primitive.NilObjectID {
		return errors.New("plan requires a session ID")
	}
	plan.SavedAt = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": plan.SessionID}, plan, opts)
	return err
}

// EnsurePlanIndexes creates necessary indexes for the session_plans collection.
// The plan is keyed by session ID (_id), so no extra indexes are needed yet;
// kept for symmetry with the other collections' startup hooks.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	_ = ctx
	_ = collection
}
