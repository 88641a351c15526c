package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"fitstudio/roster-app/internal/domain"
	"fitstudio/roster-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrAlreadyEnrolled     = errors.New("participant already has an active enrollment for this session")
	ErrNotEnrolled         = errors.New("participant has no active enrollment for this session")
	ErrConcurrencyConflict = errors.New("roster update failed after retries")
)

// DefaultMaxRetries bounds retries of transient persistence errors before a
// mutation surfaces ErrConcurrencyConflict.
const DefaultMaxRetries = 3

// --- Service Interface ---

// RosterService owns the enrollment set for a session: admission control
// against capacity, waitlist ordering and promotion, cancellation, walk-in
// registration and attendance check-in. Every mutation returns the roster
// snapshot after the change.
type RosterService interface {
	RequestBooking(ctx context.Context, sessionID, participantID primitive.ObjectID, displayName, plan string) (*domain.RosterSnapshot, error)
	CancelBooking(ctx context.Context, sessionID, participantID primitive.ObjectID) (*domain.RosterSnapshot, error)
	RegisterWalkIn(ctx context.Context, sessionID primitive.ObjectID, displayName string) (*domain.RosterSnapshot, error)
	CheckIn(ctx context.Context, sessionID, participantID primitive.ObjectID) (*domain.RosterSnapshot, error)
	MarkAllPresent(ctx context.Context, sessionID primitive.ObjectID) (*domain.RosterSnapshot, error)
	GetRoster(ctx context.Context, sessionID primitive.ObjectID) (*domain.RosterSnapshot, error)
}

// --- Service Implementation ---

// sessionLocks hands out one RWMutex per session ID. Mutations take the write
// lock so that bookings near the capacity boundary cannot both observe a free
// slot; reads take the read lock so they never see a cancellation whose
// waitlist promotion has not landed yet. Different sessions never contend.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.RWMutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[primitive.ObjectID]*sync.RWMutex)}
}

func (l *sessionLocks) get(sessionID primitive.ObjectID) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lock, exists := l.locks[sessionID]; exists {
		return lock
	}
	lock := &sync.RWMutex{}
	l.locks[sessionID] = lock
	return lock
}

// rosterService implements the RosterService interface.
type rosterService struct {
	sessionRepo    repository.SessionRepository
	enrollmentRepo repository.EnrollmentRepository
	locks          *sessionLocks
	maxRetries     int
}

// NewRosterService creates a new instance of rosterService.
func NewRosterService(sessionRepo repository.SessionRepository, enrollmentRepo repository.EnrollmentRepository, maxRetries int) RosterService {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &rosterService{
		sessionRepo:    sessionRepo,
		enrollmentRepo: enrollmentRepo,
		locks:          newSessionLocks(),
		maxRetries:     maxRetries,
	}
}

// RequestBooking admits the participant if a capacity slot is free, otherwise
// places them on the waitlist. Capacity is never an error for booking; it is
// the policy trigger for waitlisting.
func (s *rosterService) RequestBooking(ctx context.Context, sessionID, participantID primitive.ObjectID, displayName, plan string) (*domain.RosterSnapshot, error) {
	if participantID == primitive.NilObjectID || displayName == "" {
		return nil, errors.New("participant ID and display name are required")
	}

	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	_, err = s.enrollmentRepo.GetActiveByParticipant(ctx, sessionID, participantID)
	if err == nil {
		return nil, ErrAlreadyEnrolled
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	enrolled, err := s.occupiedCount(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state := domain.StateBooked
	if enrolled >= session.Capacity {
		state = domain.StateWaitlisted
	}

	// A request that timed out waiting for the lock must not create anything.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enrollment := &domain.Enrollment{
		SessionID:     sessionID,
		ParticipantID: &participantID,
		DisplayName:   displayName,
		State:         state,
		Plan:          plan,
		JoinedAt:      time.Now().UTC(), // assigned under the lock: arrival order is waitlist order
	}
	err = s.withRetry(ctx, func() error {
		_, createErr := s.enrollmentRepo.Create(ctx, enrollment)
		return createErr
	})
	if err != nil {
		return nil, err
	}

	return s.snapshot(ctx, session)
}

// CancelBooking marks the participant's active enrollment cancelled. If the
// enrollment held a capacity slot, the earliest waitlisted enrollment is
// promoted to booked within the same critical section, so a freed slot is
// never visible as open.
func (s *rosterService) CancelBooking(ctx context.Context, sessionID, participantID primitive.ObjectID) (*domain.RosterSnapshot, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.GetActiveByParticipant(ctx, sessionID, participantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	if enrollment.State == domain.StateAttended {
		// Attended is terminal; an attended enrollment cannot be cancelled.
		return nil, ErrNotEnrolled
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	freedSlot := enrollment.OccupiesSlot()

	err = s.withRetry(ctx, func() error {
		return s.enrollmentRepo.UpdateState(ctx, enrollment.ID,
			[]domain.EnrollmentState{domain.StateBooked, domain.StateWaitlisted, domain.StateWalkIn},
			domain.StateCancelled)
	})
	if err != nil {
		return nil, err
	}

	if freedSlot {
		if err := s.promoteNext(ctx, sessionID); err != nil {
			return nil, err
		}
	}

	return s.snapshot(ctx, session)
}

// RegisterWalkIn creates a walk-in enrollment unconditionally. Walk-ins are a
// front-desk override and are admitted even over nominal capacity; the
// snapshot exposes the overflow via Enrolled > Capacity.
func (s *rosterService) RegisterWalkIn(ctx context.Context, sessionID primitive.ObjectID, displayName string) (*domain.RosterSnapshot, error) {
	if displayName == "" {
		return nil, errors.New("display name is required")
	}

	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enrollment := &domain.Enrollment{
		SessionID:   sessionID,
		DisplayName: displayName,
		State:       domain.StateWalkIn,
		JoinedAt:    time.Now().UTC(),
	}
	err = s.withRetry(ctx, func() error {
		_, createErr := s.enrollmentRepo.Create(ctx, enrollment)
		return createErr
	})
	if err != nil {
		return nil, err
	}

	return s.snapshot(ctx, session)
}

// CheckIn marks an admitted (booked or walk-in) enrollment attended.
// Checking in an already-attended enrollment is a no-op; a waitlisted or
// cancelled participant has no admitted enrollment to check in.
func (s *rosterService) CheckIn(ctx context.Context, sessionID, participantID primitive.ObjectID) (*domain.RosterSnapshot, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.GetActiveByParticipant(ctx, sessionID, participantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}

	switch enrollment.State {
	case domain.StateAttended:
		return s.snapshot(ctx, session)
	case domain.StateBooked, domain.StateWalkIn:
		// fall through to the transition
	default:
		return nil, ErrNotEnrolled
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = s.withRetry(ctx, func() error {
		return s.enrollmentRepo.UpdateState(ctx, enrollment.ID,
			[]domain.EnrollmentState{domain.StateBooked, domain.StateWalkIn},
			domain.StateAttended)
	})
	if err != nil {
		return nil, err
	}

	return s.snapshot(ctx, session)
}

// MarkAllPresent checks in every admitted enrollment for the session.
// Cancelled and waitlisted entries are skipped.
func (s *rosterService) MarkAllPresent(ctx context.Context, sessionID primitive.ObjectID) (*domain.RosterSnapshot, error) {
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	enrollments, err := s.enrollmentRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range enrollments {
		e := &enrollments[i]
		if e.State != domain.StateBooked && e.State != domain.StateWalkIn {
			continue
		}
		err = s.withRetry(ctx, func() error {
			return s.enrollmentRepo.UpdateState(ctx, e.ID,
				[]domain.EnrollmentState{domain.StateBooked, domain.StateWalkIn},
				domain.StateAttended)
		})
		if err != nil {
			return nil, err
		}
	}

	return s.snapshot(ctx, session)
}

// GetRoster returns the derived roster snapshot. Read-only; runs under the
// session's read lock so concurrent reads proceed in parallel but never
// observe a half-applied mutation.
func (s *rosterService) GetRoster(ctx context.Context, sessionID primitive.ObjectID) (*domain.RosterSnapshot, error) {
	lock := s.locks.get(sessionID)
	lock.RLock()
	defer lock.RUnlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, session)
}

// --- helpers ---

func (s *rosterService) getSession(ctx context.Context, sessionID primitive.ObjectID) (*domain.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *rosterService) occupiedCount(ctx context.Context, sessionID primitive.ObjectID) (int, error) {
	enrollments, err := s.enrollmentRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range enrollments {
		if enrollments[i].OccupiesSlot() {
			count++
		}
	}
	return count, nil
}

// promoteNext transitions the earliest-joined waitlisted enrollment to booked.
// Callers hold the session write lock.
func (s *rosterService) promoteNext(ctx context.Context, sessionID primitive.ObjectID) error {
	enrollments, err := s.enrollmentRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	// Repository order is joinedAt ascending with a stable tie-break, so the
	// first waitlisted entry is the promotion candidate.
	for i := range enrollments {
		if enrollments[i].State != domain.StateWaitlisted {
			continue
		}
		return s.withRetry(ctx, func() error {
			return s.enrollmentRepo.UpdateState(ctx, enrollments[i].ID,
				[]domain.EnrollmentState{domain.StateWaitlisted},
				domain.StateBooked)
		})
	}
	return nil // empty waitlist, nothing to promote
}

// snapshot recomputes the roster view from the enrollment rows. Snapshots are
// never stored, so counts cannot drift from their source of truth.
func (s *rosterService) snapshot(ctx context.Context, session *domain.Session) (*domain.RosterSnapshot, error) {
	enrollments, err := s.enrollmentRepo.GetBySessionID(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	snap := &domain.RosterSnapshot{
		SessionID: session.ID,
		Capacity:  session.Capacity,
		Entries:   enrollments,
	}
	for i := range enrollments {
		if enrollments[i].OccupiesSlot() {
			snap.Enrolled++
		}
		if enrollments[i].State == domain.StateWaitlisted {
			snap.Waitlist = append(snap.Waitlist, enrollments[i])
		}
	}
	return snap, nil
}

// withRetry retries op on transient persistence errors a bounded number of
// times, then surfaces ErrConcurrencyConflict. Business-rule errors and
// context cancellation are never retried.
func (s *rosterService) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrNotFound) || ctx.Err() != nil {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	if err != nil {
		return ErrConcurrencyConflict
	}
	return nil
}
