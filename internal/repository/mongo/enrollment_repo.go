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

const enrollmentCollectionName = "enrollments"

// mongoEnrollmentRepository implements repository.EnrollmentRepository
type mongoEnrollmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEnrollmentRepository creates a new Enrollment repository backed by MongoDB.
func NewMongoEnrollmentRepository(db *mongo.Database) repository.EnrollmentRepository {
	return &mongoEnrollmentRepository{
		collection: db.Collection(enrollmentCollectionName),
	}
}

// Create inserts a new enrollment. JoinedAt must already be set by the caller;
// the roster engine assigns it inside its critical section so waitlist order
// reflects arrival order at the session lock.
func (r *mongoEnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error) {
	if enrollment.SessionID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("enrollment requires a session ID")
	}
	if enrollment.DisplayName == "" {
		return primitive.NilObjectID, errors.New("enrollment requires a display name")
	}

	enrollment.ID = primitive.NewObjectID()
	if enrollment.JoinedAt.IsZero() {
		enrollment.JoinedAt = time.Now().UTC()
	}
	enrollment.UpdatedAt = enrollment.JoinedAt

	result, err := r.collection.InsertOne(ctx, enrollment)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted enrollment ID")
	}
	return insertedID, nil
}

// GetByID retrieves an enrollment by its ID.
func (r *mongoEnrollmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&enrollment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// GetBySessionID retrieves every enrollment for a session, cancelled included,
// ordered by joinedAt then _id. The secondary _id sort makes the order stable
// when two entries share a joinedAt timestamp: ObjectIDs are generated in
// insertion order within the process, which matches arrival order at the
// session lock.
func (r *mongoEnrollmentRepository) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Enrollment, error) {
	var enrollments []domain.Enrollment
	filter := bson.M{"sessionId": sessionID}
	findOptions := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// GetActiveByParticipant retrieves the participant's non-cancelled enrollment
// for a session, if any.
func (r *mongoEnrollmentRepository) GetActiveByParticipant(ctx context.Context, sessionID, participantID primitive.ObjectID) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	filter := bson.M{
		"sessionId":     sessionID,
		"participantId": participantID,
		"state":         bson.M{"$ne": domain.StateCancelled},
	}

	err := r.collection.FindOne(ctx, filter).Decode(&enrollment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// UpdateState applies a state transition only if the enrollment is currently
// in one of the expected states. A non-matching current state surfaces as
// ErrConflict so the caller can distinguish a lost race from a missing row.
func (r *mongoEnrollmentRepository) UpdateState(ctx context.Context, id primitive.ObjectID, from []domain.EnrollmentState, to domain.EnrollmentState) error {
	if id == primitive.NilObjectID {
		return errors.New("enrollment ID is required for update")
	}

	filter := bson.M{
		"_id":   id,
		"state": bson.M{"$in": from},
	}
	update := bson.M{
		"$set": bson.M{
			"state":     to,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either the enrollment does not exist or its state changed under us.
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if countErr == nil && count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}

// EnsureEnrollmentIndexes creates necessary indexes for the enrollments collection.
func EnsureEnrollmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Roster reads and waitlist ordering
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "joinedAt", Value: 1}},
			Options: options.Index(),
		},
		{
			// Active-enrollment lookup per participant
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "participantId", Value: 1}, {Key: "state", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
