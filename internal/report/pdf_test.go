package report

import (
	"bytes"
	"testing"
	"time"

	"fitstudio/roster-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testSession() *domain.Session {
	return &domain.Session{
		ID:        primitive.NewObjectID(),
		Title:     "Monday Metcon",
		StartTime: time.Date(2026, 9, 7, 6, 0, 0, 0, time.UTC),
		Duration:  time.Hour,
		Capacity:  12,
		CoachID:   primitive.NewObjectID(),
	}
}

func intPtr(v int) *int { return &v }

func TestBuildSessionReport(t *testing.T) {
	session := testSession()
	participantID := primitive.NewObjectID()
	exerciseID := primitive.NewObjectID()

	snapshot := &domain.RosterSnapshot{
		SessionID: session.ID,
		Capacity:  session.Capacity,
		Enrolled:  1,
		Entries: []domain.Enrollment{
			{
				ID:            primitive.NewObjectID(),
				SessionID:     session.ID,
				ParticipantID: &participantID,
				DisplayName:   "Alice",
				State:         domain.StateBooked,
				JoinedAt:      time.Now(),
			},
		},
	}
	plan := &domain.PlanView{
		SessionID: session.ID,
		Main: []domain.ExercisePrescription{
			{ID: "p1", ExerciseID: exerciseID, Phase: domain.PhaseMain, Series: intPtr(5), Reps: intPtr(5)},
		},
	}

	pdfBytes, err := BuildSessionReport(session, snapshot, plan, ExerciseNames{exerciseID: "Back Squat"})
	if err != nil {
		t.Fatalf("BuildSessionReport: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
}

func TestBuildSessionReportWithEmptyPlan(t *testing.T) {
	session := testSession()
	snapshot := &domain.RosterSnapshot{SessionID: session.ID, Capacity: session.Capacity}
	plan := &domain.PlanView{SessionID: session.ID}

	pdfBytes, err := BuildSessionReport(session, snapshot, plan, nil)
	if err != nil {
		t.Fatalf("BuildSessionReport with empty plan: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
}

func TestBuildCheckInPass(t *testing.T) {
	session := testSession()
	participantID := primitive.NewObjectID()
	enrollment := &domain.Enrollment{
		ID:            primitive.NewObjectID(),
		SessionID:     session.ID,
		ParticipantID: &participantID,
		DisplayName:   "Alice",
		State:         domain.StateBooked,
	}

	payload := SignedPassPayload("topsecret", session.ID.Hex(), enrollment.ID.Hex())
	pdfBytes, err := BuildCheckInPass(session, enrollment, payload)
	if err != nil {
		t.Fatalf("BuildCheckInPass: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
}
