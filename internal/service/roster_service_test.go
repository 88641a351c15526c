package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"fitstudio/roster-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRosterFixture(capacity int) (RosterService, *fakeSessionRepo, *fakeEnrollmentRepo, primitive.ObjectID) {
	sessionRepo := newFakeSessionRepo()
	enrollmentRepo := newFakeEnrollmentRepo()
	sessionID := seedSession(sessionRepo, primitive.NewObjectID(), capacity)
	svc := NewRosterService(sessionRepo, enrollmentRepo, 3)
	return svc, sessionRepo, enrollmentRepo, sessionID
}

func book(t *testing.T, svc RosterService, sessionID primitive.ObjectID, name string) primitive.ObjectID {
	t.Helper()
	participantID := primitive.NewObjectID()
	if _, err := svc.RequestBooking(context.Background(), sessionID, participantID, name, "standard"); err != nil {
		t.Fatalf("RequestBooking(%s): %v", name, err)
	}
	return participantID
}

func stateOf(t *testing.T, svc RosterService, sessionID, participantID primitive.ObjectID) domain.EnrollmentState {
	t.Helper()
	snap, err := svc.GetRoster(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetRoster: %v", err)
	}
	for i := range snap.Entries {
		e := &snap.Entries[i]
		if e.ParticipantID != nil && *e.ParticipantID == participantID && e.Active() {
			return e.State
		}
	}
	t.Fatalf("participant %s has no active enrollment", participantID.Hex())
	return ""
}

func TestRequestBookingFillsCapacityThenWaitlists(t *testing.T) {
	svc, _, _, sessionID := newRosterFixture(10)

	const participants = 50
	var wg sync.WaitGroup
	errs := make(chan error, participants)
	for i := 0; i < participants; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.RequestBooking(context.Background(), sessionID,
				primitive.NewObjectID(), fmt.Sprintf("member-%d", n), "standard")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent RequestBooking: %v", err)
		}
	}

	snap, err := svc.GetRoster(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetRoster: %v", err)
	}
	if snap.Enrolled != 10 {
		t.Errorf("Enrolled = %d, want 10", snap.Enrolled)
	}
	if len(snap.Waitlist) != 40 {
		t.Errorf("waitlist length = %d, want 40", len(snap.Waitlist))
	}
	booked := 0
	for i := range snap.Entries {
		if snap.Entries[i].State == domain.StateBooked {
			booked++
		}
	}
	if booked != 10 {
		t.Errorf("booked count = %d, want 10", booked)
	}
}

func TestRequestBookingRejectsDuplicate(t *testing.T) {
	svc, _, _, sessionID := newRosterFixture(10)
	participantID := primitive.NewObjectID()

	if _, err := svc.RequestBooking(context.Background(), sessionID, participantID, "alice", "standard"); err != nil {
		t.Fatalf("first RequestBooking: %v", err)
	}
	_, err := svc.RequestBooking(context.Background(), sessionID, participantID, "alice", "standard")
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Errorf("second RequestBooking error = %v, want ErrAlreadyEnrolled", err)
	}

	// A waitlisted enrollment also blocks a second request.
	svcSmall, _, _, smallID := newRosterFixture(1)
	book(t, svcSmall, smallID, "first")
	waitlisted := book(t, svcSmall, smallID, "second")
	if got := stateOf(t, svcSmall, smallID, waitlisted); got != domain.StateWaitlisted {
		t.Fatalf("state = %s, want waitlisted", got)
	}
	_, err = svcSmall.RequestBooking(context.Background(), smallID, waitlisted, "second", "standard")
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Errorf("rebooking while waitlisted error = %v, want ErrAlreadyEnrolled", err)
	}
}

func TestRequestBookingUnknownSession(t *testing.T) {
	svc, _, _, _ := newRosterFixture(10)
	_, err := svc.RequestBooking(context.Background(), primitive.NewObjectID(),
		primitive.NewObjectID(), "alice", "standard")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestCancelPromotesEarliestWaitlisted(t *testing.T) {
	svc, _, _, sessionID := newRosterFixture(2)

	a := book(t, svc, sessionID, "a")
	book(t, svc, sessionID, "b")
	c := book(t, svc, sessionID, "c")
	d := book(t, svc, sessionID, "d")

	if got := stateOf(t, svc, sessionID, c); got != domain.StateWaitlisted {
		t.Fatalf("c state = %s, want waitlisted", got)
	}

	snap, err := svc.CancelBooking(context.Background(), sessionID, a)
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}

	// c joined the waitlist before d, so c gets the freed slot.
	if got := stateOf(t, svc, sessionID, c); got != domain.StateBooked {
		t.Errorf("c state after cancel = %s, want booked", got)
	}
	if got := stateOf(t, svc, sessionID, d); got != domain.StateWaitlisted {
		t.Errorf("d state after cancel = %s, want waitlisted", got)
	}
	// The returned snapshot already reflects the promotion.
	if snap.Enrolled != 2 {
		t.Errorf("Enrolled = %d, want 2", snap.Enrolled)
	}
	if len(snap.Waitlist) != 1 {
		t.Errorf("waitlist length = %d, want 1", len(snap.Waitlist))
	}
}

func TestCancelWaitlistedFreesNoSlot(t *testing.T) {
	svc, _, _, sessionID := newRosterFixture(1)

	book(t, svc, sessionID, "a")
	b := book(t, svc, sessionID, "b")
	c := book(t, svc, sessionID, "c")

	if _, err := svc.CancelBooking(context.Background(), sessionID, b); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}

	// b held no slot, so c stays waitlisted.
	if got := stateOf(t, svc, sessionID, c); got != domain.StateWaitlisted {
		t.Errorf("c state = %s, want waitlisted", got)
	}
}

func TestCancelRequiresActiveEnrollment(t *testing.T) {
	svc, _, _, sessionID := newRosterFixture(10)

	_, err := svc.CancelBooking(context.Background(), sessionID, primitive.NewObjectID())
	if !errors.Is(err, ErrNotEnrolled) {
		t.Errorf("cancel without enrollment error = %v, want ErrNotEnrolled", err)
	}

	// Attended is terminal.
	p := book(t, svc, sessionID, "alice")
	if _, err := svc.CheckIn(context.Background(), sessionID, p); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	_, err = svc.CancelBooking(context.Background(), sessionID, p)
	if !errors.Is(err, ErrNotEnrolled) {
		t.Errorf("cancel after check-in error = %v, want ErrNotEnrolled", err)
	}
}

func TestWalkInAdmitsOverCapacity(t *testing.T) {
	svc, _, _, sessionID := newRosterFixture(1)

	book(t, svc, sessionID, "alice")
	snap, err := svc.RegisterWalkIn(context.Background(), sessionID, "drop-in bob")
	if err != nil {
		t.Fatalf("RegisterWalkIn: %v", err)
	}

	if snap.Enrolled != 2 {
		t.Errorf("Enrolled = %d, want 2 (walk-in overflow)", snap.Enrolled)
	}
	if snap.Capacity != 1 {
		t.Errorf("Capacity = %d, want 1", snap.Capacity)
	}
	if len(snap.Waitlist) != 0 {
		t.Errorf("waitlist length = %d, want 0", len(snap.Waitlist))
	}
}

func TestWalkInDoesNotStealPromotion(t *testing.T) {
	svc, _, _, sessionID := newRosterFixture(1)

	a := book(t, svc, sessionID, "a")
	b := book(t, svc, sessionID, "b")
	if _, err := svc.RegisterWalkIn(context.Background(), sessionID, "walkin"); err != nil {
		t.Fatalf("RegisterWalkIn: %v", err)
	}

	// The walk-in pushed Enrolled to 2; cancelling a still promotes b, the
	// waitlist is ordered by arrival, not by free capacity.
	if _, err := svc.CancelBooking(context.Background(), sessionID, a); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if got := stateOf(t, svc, sessionID, b); got != domain.StateBooked {
		t.Errorf("b state = %s, want booked", got)
	}
}

func TestCheckInTransitions(t *testing.T) {
	svc, _, _, sessionID := newRosterFixture(1)

	p := book(t, svc, sessionID, "alice")
	waitlisted := book(t, svc, sessionID, "bob")

	snap, err := svc.CheckIn(context.Background(), sessionID, p)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if got := stateOf(t, svc, sessionID, p); got != domain.StateAttended {
		t.Errorf("state after check-in = %s, want attended", got)
	}
	if snap.Enrolled != 1 {
		t.Errorf("Enrolled = %d, want 1 (attended keeps the slot)", snap.Enrolled)
	}

	// Checking in twice is a no-op.
	if _, err := svc.CheckIn(context.Background(), sessionID, p); err != nil {
		t.Errorf("repeated CheckIn: %v", err)
	}

	// A waitlisted participant was never admitted.
	_, err = svc.CheckIn(context.Background(), sessionID, waitlisted)
	if !errors.Is(err, ErrNotEnrolled) {
		t.Errorf("check-in while waitlisted error = %v, want ErrNotEnrolled", err)
	}
}

func TestMarkAllPresent(t *testing.T) {
	svc, _, _, sessionID := newRosterFixture(2)

	a := book(t, svc, sessionID, "a")
	b := book(t, svc, sessionID, "b")
	c := book(t, svc, sessionID, "c") // waitlisted
	if _, err := svc.RegisterWalkIn(context.Background(), sessionID, "walkin"); err != nil {
		t.Fatalf("RegisterWalkIn: %v", err)
	}
	if _, err := svc.CancelBooking(context.Background(), sessionID, b); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	// b's cancellation promoted c.

	snap, err := svc.MarkAllPresent(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("MarkAllPresent: %v", err)
	}

	if got := stateOf(t, svc, sessionID, a); got != domain.StateAttended {
		t.Errorf("a state = %s, want attended", got)
	}
	if got := stateOf(t, svc, sessionID, c); got != domain.StateAttended {
		t.Errorf("c state = %s, want attended", got)
	}
	attended, cancelled := 0, 0
	for i := range snap.Entries {
		switch snap.Entries[i].State {
		case domain.StateAttended:
			attended++
		case domain.StateCancelled:
			cancelled++
		}
	}
	if attended != 3 { // a, c and the walk-in
		t.Errorf("attended count = %d, want 3", attended)
	}
	if cancelled != 1 {
		t.Errorf("cancelled count = %d, want 1 (cancellations survive as history)", cancelled)
	}
}

func TestCancelledContextCreatesNothing(t *testing.T) {
	svc, _, enrollmentRepo, sessionID := newRosterFixture(10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RequestBooking(ctx, sessionID, primitive.NewObjectID(), "alice", "standard")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	enrollments, _ := enrollmentRepo.GetBySessionID(context.Background(), sessionID)
	if len(enrollments) != 0 {
		t.Errorf("enrollment count = %d, want 0 after cancelled request", len(enrollments))
	}
}

func TestSnapshotKeepsCancelledHistory(t *testing.T) {
	svc, _, _, sessionID := newRosterFixture(10)

	p := book(t, svc, sessionID, "alice")
	if _, err := svc.CancelBooking(context.Background(), sessionID, p); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}

	snap, err := svc.GetRoster(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetRoster: %v", err)
	}
	if len(snap.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(snap.Entries))
	}
	if snap.Entries[0].State != domain.StateCancelled {
		t.Errorf("state = %s, want cancelled", snap.Entries[0].State)
	}
	if snap.Enrolled != 0 {
		t.Errorf("Enrolled = %d, want 0", snap.Enrolled)
	}
}
