package service

import (
	"context"
	"errors"
	"testing"

	"fitstudio/roster-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planFixture struct {
	svc          PlanService
	sessionRepo  *fakeSessionRepo
	planRepo     *fakePlanRepo
	exerciseRepo *fakeExerciseRepo
	coachID      primitive.ObjectID
	sessionID    primitive.ObjectID
	exerciseID   primitive.ObjectID
}

func newPlanFixture() *planFixture {
	sessionRepo := newFakeSessionRepo()
	planRepo := newFakePlanRepo()
	exerciseRepo := newFakeExerciseRepo()
	coachID := primitive.NewObjectID()
	return &planFixture{
		svc:          NewPlanService(sessionRepo, planRepo, exerciseRepo),
		sessionRepo:  sessionRepo,
		planRepo:     planRepo,
		exerciseRepo: exerciseRepo,
		coachID:      coachID,
		sessionID:    seedSession(sessionRepo, coachID, 10),
		exerciseID:   seedExercise(exerciseRepo, coachID, "Back Squat"),
	}
}

func TestAddExerciseRejectsDuplicate(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()

	if _, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, domain.PhaseMain, nil); err != nil {
		t.Fatalf("first AddExercise: %v", err)
	}
	// Same exercise in another phase is still a duplicate.
	_, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, domain.PhaseWarmup, nil)
	if !errors.Is(err, ErrDuplicateExercise) {
		t.Errorf("error = %v, want ErrDuplicateExercise", err)
	}
}

func TestAddExerciseValidation(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()

	if _, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, "stretching", nil); err == nil {
		t.Error("unknown phase accepted")
	}

	_, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, primitive.NewObjectID(), domain.PhaseMain, nil)
	if !errors.Is(err, ErrExerciseNotFound) {
		t.Errorf("unknown exercise error = %v, want ErrExerciseNotFound", err)
	}

	_, err = f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, domain.PhaseMain,
		map[string]int{"laps": 3})
	if !errors.Is(err, ErrInvalidMetric) {
		t.Errorf("unknown metric error = %v, want ErrInvalidMetric", err)
	}
}

func TestPlanEditsRequireAssignedCoach(t *testing.T) {
	f := newPlanFixture()
	otherCoach := primitive.NewObjectID()

	_, err := f.svc.AddExercise(context.Background(), f.sessionID, otherCoach, f.exerciseID, domain.PhaseMain, nil)
	if !errors.Is(err, ErrPlanAccessDenied) {
		t.Errorf("error = %v, want ErrPlanAccessDenied", err)
	}
	_, err = f.svc.Save(context.Background(), f.sessionID, otherCoach)
	if !errors.Is(err, ErrPlanAccessDenied) {
		t.Errorf("Save error = %v, want ErrPlanAccessDenied", err)
	}
}

func TestUpdateMetric(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()

	p, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, domain.PhaseMain,
		map[string]int{domain.MetricSeries: 5, domain.MetricReps: 5})
	if err != nil {
		t.Fatalf("AddExercise: %v", err)
	}

	if err := f.svc.UpdateMetric(ctx, f.sessionID, f.coachID, p.ID, domain.MetricReps, 3); err != nil {
		t.Fatalf("UpdateMetric: %v", err)
	}

	err = f.svc.UpdateMetric(ctx, f.sessionID, f.coachID, p.ID, "laps", 3)
	if !errors.Is(err, ErrInvalidMetric) {
		t.Errorf("unknown metric error = %v, want ErrInvalidMetric", err)
	}
	err = f.svc.UpdateMetric(ctx, f.sessionID, f.coachID, "no-such-id", domain.MetricReps, 3)
	if !errors.Is(err, ErrPrescriptionNotFound) {
		t.Errorf("unknown prescription error = %v, want ErrPrescriptionNotFound", err)
	}

	view, err := f.svc.GetDraft(ctx, f.sessionID, f.coachID)
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if len(view.Main) != 1 || view.Main[0].Reps == nil || *view.Main[0].Reps != 3 {
		t.Errorf("draft reps = %+v, want 3", view.Main[0].Reps)
	}
	if view.Main[0].Series == nil || *view.Main[0].Series != 5 {
		t.Errorf("draft series unchanged check failed: %+v", view.Main[0].Series)
	}
}

func TestRemoveExerciseIsIdempotent(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()

	p, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, domain.PhaseMain, nil)
	if err != nil {
		t.Fatalf("AddExercise: %v", err)
	}

	if err := f.svc.RemoveExercise(ctx, f.sessionID, f.coachID, p.ID); err != nil {
		t.Fatalf("RemoveExercise: %v", err)
	}
	// Removing again, or removing something that never existed, succeeds.
	if err := f.svc.RemoveExercise(ctx, f.sessionID, f.coachID, p.ID); err != nil {
		t.Errorf("second RemoveExercise: %v", err)
	}
	if err := f.svc.RemoveExercise(ctx, f.sessionID, f.coachID, "never-existed"); err != nil {
		t.Errorf("RemoveExercise of absent id: %v", err)
	}

	// The exercise can be added again after removal.
	if _, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, domain.PhaseMain, nil); err != nil {
		t.Errorf("re-add after removal: %v", err)
	}
}

func TestDraftInvisibleUntilSave(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()

	p, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, domain.PhaseMain,
		map[string]int{domain.MetricRounds: 3})
	if err != nil {
		t.Fatalf("AddExercise: %v", err)
	}
	if err := f.svc.UpdateMetric(ctx, f.sessionID, f.coachID, p.ID, domain.MetricRounds, 5); err != nil {
		t.Fatalf("UpdateMetric: %v", err)
	}

	view, err := f.svc.GetPlan(ctx, f.sessionID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if !view.Empty() {
		t.Fatal("unsaved edits leaked into the published plan")
	}

	if _, err := f.svc.Save(ctx, f.sessionID, f.coachID); err != nil {
		t.Fatalf("Save: %v", err)
	}

	view, err = f.svc.GetPlan(ctx, f.sessionID)
	if err != nil {
		t.Fatalf("GetPlan after save: %v", err)
	}
	if len(view.Main) != 1 {
		t.Fatalf("published main entries = %d, want 1", len(view.Main))
	}
	if view.Main[0].Rounds == nil || *view.Main[0].Rounds != 5 {
		t.Errorf("published rounds = %+v, want 5", view.Main[0].Rounds)
	}
	if view.SavedAt.IsZero() {
		t.Error("SavedAt not set on published plan")
	}
}

func TestEditAfterSaveKeepsPublishedVersion(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()

	p, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, domain.PhaseMain,
		map[string]int{domain.MetricReps: 10})
	if err != nil {
		t.Fatalf("AddExercise: %v", err)
	}
	if _, err := f.svc.Save(ctx, f.sessionID, f.coachID); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Keep editing the draft from the published state.
	if err := f.svc.UpdateMetric(ctx, f.sessionID, f.coachID, p.ID, domain.MetricReps, 12); err != nil {
		t.Fatalf("UpdateMetric: %v", err)
	}

	view, err := f.svc.GetPlan(ctx, f.sessionID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if *view.Main[0].Reps != 10 {
		t.Errorf("published reps = %d, want 10 (draft edit must not leak)", *view.Main[0].Reps)
	}
}

func TestGetPlanForUnpublishedSession(t *testing.T) {
	f := newPlanFixture()

	view, err := f.svc.GetPlan(context.Background(), f.sessionID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if !view.Empty() {
		t.Error("expected empty view for a session with no saved plan")
	}

	_, err = f.svc.GetPlan(context.Background(), primitive.NewObjectID())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session error = %v, want ErrSessionNotFound", err)
	}
}

func TestDiscardDraftRestoresSavedVersion(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()

	if _, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, domain.PhaseWarmup, nil); err != nil {
		t.Fatalf("AddExercise: %v", err)
	}
	if _, err := f.svc.Save(ctx, f.sessionID, f.coachID); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := seedExercise(f.exerciseRepo, f.coachID, "Burpees")
	if _, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, second, domain.PhaseMain, nil); err != nil {
		t.Fatalf("AddExercise: %v", err)
	}
	if err := f.svc.DiscardDraft(ctx, f.sessionID, f.coachID); err != nil {
		t.Fatalf("DiscardDraft: %v", err)
	}

	view, err := f.svc.GetDraft(ctx, f.sessionID, f.coachID)
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if len(view.Main) != 0 {
		t.Errorf("main entries after discard = %d, want 0", len(view.Main))
	}
	if len(view.Warmup) != 1 {
		t.Errorf("warmup entries after discard = %d, want 1 (saved version)", len(view.Warmup))
	}
}

func TestCopyFromSessionGetsFreshIDs(t *testing.T) {
	f := newPlanFixture()
	ctx := context.Background()

	p, err := f.svc.AddExercise(ctx, f.sessionID, f.coachID, f.exerciseID, domain.PhaseMain,
		map[string]int{domain.MetricReps: 21})
	if err != nil {
		t.Fatalf("AddExercise: %v", err)
	}
	if _, err := f.svc.Save(ctx, f.sessionID, f.coachID); err != nil {
		t.Fatalf("Save: %v", err)
	}

	targetID := seedSession(f.sessionRepo, f.coachID, 10)
	view, err := f.svc.CopyFromSession(ctx, f.sessionID, targetID, f.coachID)
	if err != nil {
		t.Fatalf("CopyFromSession: %v", err)
	}

	if len(view.Main) != 1 {
		t.Fatalf("copied main entries = %d, want 1", len(view.Main))
	}
	if view.Main[0].ID == p.ID {
		t.Error("copied prescription kept the source ID, want a fresh one")
	}
	if view.Main[0].ExerciseID != f.exerciseID {
		t.Error("copied prescription lost the exercise reference")
	}

	// Mutating the copy must not reach the source plan.
	if err := f.svc.UpdateMetric(ctx, targetID, f.coachID, view.Main[0].ID, domain.MetricReps, 15); err != nil {
		t.Fatalf("UpdateMetric on copy: %v", err)
	}
	source, err := f.svc.GetPlan(ctx, f.sessionID)
	if err != nil {
		t.Fatalf("GetPlan source: %v", err)
	}
	if *source.Main[0].Reps != 21 {
		t.Errorf("source reps = %d, want 21", *source.Main[0].Reps)
	}

	// Copying from a session with no saved plan fails.
	if _, err := f.svc.CopyFromSession(ctx, primitive.NewObjectID(), targetID, f.coachID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("copy from unplanned session error = %v, want ErrSessionNotFound", err)
	}
}
