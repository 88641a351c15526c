package service

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"fitstudio/roster-app/internal/domain"
	"fitstudio/roster-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the mongo repositories' contracts:
// sentinel errors, conditional UpdateState and the joinedAt/_id sort order of
// GetBySessionID.

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[primitive.ObjectID]*domain.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == primitive.NilObjectID {
		session.ID = primitive.NewObjectID()
	}
	copied := *session
	r.sessions[session.ID] = &copied
	return session.ID, nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, exists := r.sessions[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if s.CoachID == coachID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) GetUpcoming(ctx context.Context) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	now := time.Now()
	for _, s := range r.sessions {
		if s.StartTime.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments []domain.Enrollment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{}
}

func (r *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enrollment.ID = primitive.NewObjectID()
	enrollment.UpdatedAt = time.Now().UTC()
	r.enrollments = append(r.enrollments, *enrollment)
	return enrollment.ID, nil
}

func (r *fakeEnrollmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.enrollments {
		if r.enrollments[i].ID == id {
			copied := r.enrollments[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEnrollmentRepo) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Enrollment
	for i := range r.enrollments {
		if r.enrollments[i].SessionID == sessionID {
			out = append(out, r.enrollments[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (r *fakeEnrollmentRepo) GetActiveByParticipant(ctx context.Context, sessionID, participantID primitive.ObjectID) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.enrollments {
		e := &r.enrollments[i]
		if e.SessionID == sessionID && e.ParticipantID != nil && *e.ParticipantID == participantID && e.Active() {
			copied := *e
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEnrollmentRepo) UpdateState(ctx context.Context, id primitive.ObjectID, from []domain.EnrollmentState, to domain.EnrollmentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.enrollments {
		if r.enrollments[i].ID != id {
			continue
		}
		for _, state := range from {
			if r.enrollments[i].State == state {
				r.enrollments[i].State = to
				r.enrollments[i].UpdatedAt = time.Now().UTC()
				return nil
			}
		}
		return repository.ErrConflict
	}
	return repository.ErrNotFound
}

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]*domain.SessionPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.SessionPlan)}
}

func (r *fakePlanRepo) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) (*domain.SessionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, exists := r.plans[sessionID]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return plan.Clone(), nil
}

func (r *fakePlanRepo) Replace(ctx context.Context, plan *domain.SessionPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan.SavedAt = time.Now().UTC()
	r.plans[plan.SessionID] = plan.Clone()
	return nil
}

type fakeExerciseRepo struct {
	mu        sync.Mutex
	exercises map[primitive.ObjectID]*domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]*domain.Exercise)}
}

func (r *fakeExerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if exercise.ID == primitive.NilObjectID {
		exercise.ID = primitive.NewObjectID()
	}
	copied := *exercise
	r.exercises[exercise.ID] = &copied
	return exercise.ID, nil
}

func (r *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exercise, exists := r.exercises[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	copied := *exercise
	return &copied, nil
}

func (r *fakeExerciseRepo) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Exercise
	for _, e := range r.exercises {
		if e.CoachID == coachID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeExerciseRepo) Update(ctx context.Context, exercise *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.exercises[exercise.ID]; !exists {
		return repository.ErrNotFound
	}
	copied := *exercise
	r.exercises[exercise.ID] = &copied
	return nil
}

func (r *fakeExerciseRepo) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exercise, exists := r.exercises[id]
	if !exists || exercise.CoachID != coachID {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

// --- test helpers ---

func seedSession(repo *fakeSessionRepo, coachID primitive.ObjectID, capacity int) primitive.ObjectID {
	session := &domain.Session{
		Title:     "Morning WOD",
		StartTime: time.Now().Add(24 * time.Hour),
		Duration:  time.Hour,
		Capacity:  capacity,
		CoachID:   coachID,
	}
	id, _ := repo.Create(context.Background(), session)
	return id
}

func seedExercise(repo *fakeExerciseRepo, coachID primitive.ObjectID, name string) primitive.ObjectID {
	id, _ := repo.Create(context.Background(), &domain.Exercise{
		CoachID: coachID,
		Name:    name,
	})
	return id
}
