package service

import (
	"context"
	"errors"
	"sync"

	"fitstudio/roster-app/internal/domain"
	"fitstudio/roster-app/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrDuplicateExercise    = errors.New("exercise is already part of this session's plan")
	ErrInvalidMetric        = errors.New("unknown metric name")
	ErrPrescriptionNotFound = errors.New("prescription not found in this session's plan")
	ErrPlanAccessDenied     = errors.New("only the assigned coach may edit this session's plan")
	ErrExerciseNotFound     = errors.New("exercise not found")
)

// --- Service Interface ---

// PlanService owns the session plan (WOD): an ordered prescription list per
// session. Edits accumulate in an in-memory working copy visible only to the
// editing coach; Save publishes the working copy as the durable version that
// GetPlan and the report generator read. A plan is never published mid-edit.
type PlanService interface {
	AddExercise(ctx context.Context, sessionID, coachID, exerciseID primitive.ObjectID, phase domain.Phase, metrics map[string]int) (*domain.ExercisePrescription, error)
	UpdateMetric(ctx context.Context, sessionID, coachID primitive.ObjectID, prescriptionID, metric string, value int) error
	RemoveExercise(ctx context.Context, sessionID, coachID primitive.ObjectID, prescriptionID string) error
	Save(ctx context.Context, sessionID, coachID primitive.ObjectID) (*domain.PlanView, error)
	GetPlan(ctx context.Context, sessionID primitive.ObjectID) (*domain.PlanView, error)
	GetDraft(ctx context.Context, sessionID, coachID primitive.ObjectID) (*domain.PlanView, error)
	DiscardDraft(ctx context.Context, sessionID, coachID primitive.ObjectID) error
	CopyFromSession(ctx context.Context, fromSessionID, toSessionID, coachID primitive.ObjectID) (*domain.PlanView, error)
}

// --- Service Implementation ---

// planService implements the PlanService interface.
type planService struct {
	sessionRepo  repository.SessionRepository
	planRepo     repository.PlanRepository
	exerciseRepo repository.ExerciseRepository

	mu     sync.Mutex
	drafts map[primitive.ObjectID]*domain.SessionPlan // working copies keyed by session ID
}

// NewPlanService creates a new instance of planService.
func NewPlanService(sessionRepo repository.SessionRepository, planRepo repository.PlanRepository, exerciseRepo repository.ExerciseRepository) PlanService {
	return &planService{
		sessionRepo:  sessionRepo,
		planRepo:     planRepo,
		exerciseRepo: exerciseRepo,
		drafts:       make(map[primitive.ObjectID]*domain.SessionPlan),
	}
}

// AddExercise appends a prescription for the given exercise to the named
// phase of the working copy. Duplicate exercise references anywhere in the
// plan are rejected.
func (s *planService) AddExercise(ctx context.Context, sessionID, coachID, exerciseID primitive.ObjectID, phase domain.Phase, metrics map[string]int) (*domain.ExercisePrescription, error) {
	if !domain.ValidPhase(phase) {
		return nil, errors.New("phase must be one of warmup, main, cooldown")
	}
	if err := s.authorizeCoach(ctx, sessionID, coachID); err != nil {
		return nil, err
	}

	// Catalog lookup happens before the draft is touched; the plan keeps
	// only the reference, never a copy of catalog fields.
	if _, err := s.exerciseRepo.GetByID(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.draftLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if draft.HasExercise(exerciseID) {
		return nil, ErrDuplicateExercise
	}

	prescription := domain.ExercisePrescription{
		ID:         uuid.NewString(),
		ExerciseID: exerciseID,
		Phase:      phase,
	}
	for name, value := range metrics {
		if !prescription.SetMetric(name, value) {
			return nil, ErrInvalidMetric
		}
	}

	draft.Entries = append(draft.Entries, prescription)
	return &prescription, nil
}

// UpdateMetric replaces a single metric value on a draft prescription.
// Numeric ranges are not validated; that is left to the caller's UI.
func (s *planService) UpdateMetric(ctx context.Context, sessionID, coachID primitive.ObjectID, prescriptionID, metric string, value int) error {
	if err := s.authorizeCoach(ctx, sessionID, coachID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.draftLocked(ctx, sessionID)
	if err != nil {
		return err
	}

	idx := draft.FindEntry(prescriptionID)
	if idx < 0 {
		return ErrPrescriptionNotFound
	}
	if !draft.Entries[idx].SetMetric(metric, value) {
		return ErrInvalidMetric
	}
	return nil
}

// RemoveExercise deletes a prescription from the working copy. Removing an
// absent prescription is a no-op, not an error.
func (s *planService) RemoveExercise(ctx context.Context, sessionID, coachID primitive.ObjectID, prescriptionID string) error {
	if err := s.authorizeCoach(ctx, sessionID, coachID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.draftLocked(ctx, sessionID)
	if err != nil {
		return err
	}

	idx := draft.FindEntry(prescriptionID)
	if idx < 0 {
		return nil // idempotent
	}
	draft.Entries = append(draft.Entries[:idx], draft.Entries[idx+1:]...)
	return nil
}

// Save publishes the working copy as the durable plan version. Until Save is
// called, other viewers (the report generator included) keep seeing the
// last-saved version.
func (s *planService) Save(ctx context.Context, sessionID, coachID primitive.ObjectID) (*domain.PlanView, error) {
	if err := s.authorizeCoach(ctx, sessionID, coachID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.draftLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	persisted := draft.Clone()
	if err := s.planRepo.Replace(ctx, persisted); err != nil {
		return nil, err
	}
	// The draft survives Save so the coach can keep editing from the
	// just-published state.
	draft.SavedAt = persisted.SavedAt

	return domain.ViewOf(persisted), nil
}

// GetPlan returns the last-saved plan grouped by phase. A session with no
// saved plan yields an empty view, which is a valid, renderable state.
func (s *planService) GetPlan(ctx context.Context, sessionID primitive.ObjectID) (*domain.PlanView, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	plan, err := s.planRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ViewOf(&domain.SessionPlan{SessionID: sessionID}), nil
		}
		return nil, err
	}
	return domain.ViewOf(plan), nil
}

// GetDraft returns the editing coach's current working copy.
func (s *planService) GetDraft(ctx context.Context, sessionID, coachID primitive.ObjectID) (*domain.PlanView, error) {
	if err := s.authorizeCoach(ctx, sessionID, coachID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.draftLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return domain.ViewOf(draft.Clone()), nil
}

// DiscardDraft drops unsaved edits; the next edit starts again from the
// last-saved version.
func (s *planService) DiscardDraft(ctx context.Context, sessionID, coachID primitive.ObjectID) error {
	if err := s.authorizeCoach(ctx, sessionID, coachID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, sessionID)
	return nil
}

// CopyFromSession seeds the target session's working copy with a copy of
// another session's saved plan. Prescriptions get fresh IDs: they are owned
// by their plan and never shared across sessions.
func (s *planService) CopyFromSession(ctx context.Context, fromSessionID, toSessionID, coachID primitive.ObjectID) (*domain.PlanView, error) {
	if err := s.authorizeCoach(ctx, toSessionID, coachID); err != nil {
		return nil, err
	}

	source, err := s.planRepo.GetBySessionID(ctx, fromSessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	draft := source.Clone()
	draft.SessionID = toSessionID
	for i := range draft.Entries {
		draft.Entries[i].ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[toSessionID] = draft
	return domain.ViewOf(draft.Clone()), nil
}

// --- helpers ---

// authorizeCoach verifies the session exists and is assigned to the coach.
func (s *planService) authorizeCoach(ctx context.Context, sessionID, coachID primitive.ObjectID) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if session.CoachID != coachID {
		return ErrPlanAccessDenied
	}
	return nil
}

// draftLocked returns the working copy for a session, seeding it from the
// saved version (or an empty plan) on first edit. Callers hold s.mu.
func (s *planService) draftLocked(ctx context.Context, sessionID primitive.ObjectID) (*domain.SessionPlan, error) {
	if draft, exists := s.drafts[sessionID]; exists {
		return draft, nil
	}

	saved, err := s.planRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		saved = &domain.SessionPlan{SessionID: sessionID}
	}

	draft := saved.Clone()
	s.drafts[sessionID] = draft
	return draft, nil
}
