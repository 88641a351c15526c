package repository

import (
	"context"

	"fitstudio/roster-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrConflict     = RepositoryError("state conflict") // conditional update matched no document
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// SessionRepository defines the interface for interacting with session data.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Session, error)
	GetUpcoming(ctx context.Context) ([]domain.Session, error)
}

// EnrollmentRepository defines the interface for interacting with enrollment
// data. UpdateState is a conditional write: it only applies the transition if
// the enrollment is currently in one of the expected states, and returns
// ErrConflict otherwise. The roster engine relies on this to keep state
// transitions atomic at the document level.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error)
	GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Enrollment, error)
	GetActiveByParticipant(ctx context.Context, sessionID, participantID primitive.ObjectID) (*domain.Enrollment, error)
	UpdateState(ctx context.Context, id primitive.ObjectID, from []domain.EnrollmentState, to domain.EnrollmentState) error
}

// PlanRepository defines the interface for interacting with saved session
// plans. Replace has upsert, last-write-wins semantics; the plan store's
// Save() maps directly onto it.
type PlanRepository interface {
	GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) (*domain.SessionPlan, error)
	Replace(ctx context.Context, plan *domain.SessionPlan) error
}

// ExerciseRepository defines the interface for interacting with the exercise
// catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error // Ensure coach owns the entry
}

// ReportRepository defines the interface for interacting with archived report
// metadata.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Report, error)
	GetLatestBySessionID(ctx context.Context, sessionID primitive.ObjectID) (*domain.Report, error)
}
