package service

import (
	"context"
	"errors"
	"time"

	"fitstudio/roster-app/internal/domain"
	"fitstudio/roster-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionValidation = errors.New("session validation failed")
)

// --- Service Interface ---
type SessionService interface {
	CreateSession(ctx context.Context, coachID primitive.ObjectID, title string, startTime time.Time, duration time.Duration, capacity int) (*domain.Session, error)
	GetSession(ctx context.Context, sessionID primitive.ObjectID) (*domain.Session, error)
	GetUpcomingSessions(ctx context.Context) ([]domain.Session, error)
	GetSessionsByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Session, error)
}

// --- Service Implementation ---

// sessionService implements the SessionService interface.
type sessionService struct {
	sessionRepo repository.SessionRepository
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(sessionRepo repository.SessionRepository) SessionService {
	return &sessionService{sessionRepo: sessionRepo}
}

// CreateSession schedules a new class occurrence. The session plan starts
// empty; there is no plan document until the coach saves one.
func (s *sessionService) CreateSession(ctx context.Context, coachID primitive.ObjectID, title string, startTime time.Time, duration time.Duration, capacity int) (*domain.Session, error) {
	if title == "" || capacity <= 0 || duration <= 0 {
		return nil, ErrSessionValidation
	}
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required to create a session")
	}

	session := &domain.Session{
		Title:     title,
		StartTime: startTime.UTC(),
		Duration:  duration,
		Capacity:  capacity,
		CoachID:   coachID,
	}

	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = sessionID
	return session, nil
}

// GetSession retrieves a single session.
func (s *sessionService) GetSession(ctx context.Context, sessionID primitive.ObjectID) (*domain.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// GetUpcomingSessions retrieves all sessions starting from now.
func (s *sessionService) GetUpcomingSessions(ctx context.Context) ([]domain.Session, error) {
	return s.sessionRepo.GetUpcoming(ctx)
}

// GetSessionsByCoach retrieves all sessions run by a coach.
func (s *sessionService) GetSessionsByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Session, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID cannot be nil")
	}
	return s.sessionRepo.GetByCoachID(ctx, coachID)
}
