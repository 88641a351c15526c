package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"fitstudio/roster-app/internal/domain"
	"fitstudio/roster-app/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCatalogAccessDenied = errors.New("access denied to modify or delete this exercise")
	ErrCatalogValidation   = errors.New("exercise validation failed")
)

// exerciseCacheTTL bounds staleness of cached catalog entries. Catalog reads
// happen on every plan render, so by-ID lookups go through redis first.
const exerciseCacheTTL = 10 * time.Minute

// --- Service Interface ---
// CatalogService is the exercise catalog collaborator: display metadata for
// the exercises referenced by session plans. Plans store only the reference.
type CatalogService interface {
	CreateExercise(ctx context.Context, coachID primitive.ObjectID, name, description, imageRef, category, muscleGroup string) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	GetExercisesByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID, name, description, imageRef, category, muscleGroup string) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID) error
}

// --- Service Implementation ---

// catalogService implements the CatalogService interface.
type catalogService struct {
	exerciseRepo repository.ExerciseRepository
	rdx          *redis.Client // optional; nil disables caching
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(exerciseRepo repository.ExerciseRepository, rdx *redis.Client) CatalogService {
	return &catalogService{
		exerciseRepo: exerciseRepo,
		rdx:          rdx,
	}
}

// CreateExercise handles the creation of a new catalog entry by a coach.
func (s *catalogService) CreateExercise(ctx context.Context, coachID primitive.ObjectID, name, description, imageRef, category, muscleGroup string) (*domain.Exercise, error) {
	if name == "" {
		return nil, ErrCatalogValidation
	}
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required to create an exercise")
	}

	exercise := &domain.Exercise{
		CoachID:     coachID,
		Name:        name,
		Description: description,
		ImageRef:    imageRef,
		Category:    category,
		MuscleGroup: muscleGroup,
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

// GetExerciseByID retrieves a single catalog entry, redis first.
func (s *catalogService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	if cached := s.cacheGet(ctx, exerciseID); cached != nil {
		return cached, nil
	}

	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	s.cacheSet(ctx, exercise)
	return exercise, nil
}

// GetExercisesByCoach retrieves all catalog entries for a specific coach.
func (s *catalogService) GetExercisesByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID cannot be nil")
	}
	return s.exerciseRepo.GetByCoachID(ctx, coachID)
}

// UpdateExercise handles updating an existing catalog entry, ensuring ownership.
func (s *catalogService) UpdateExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID, name, description, imageRef, category, muscleGroup string) (*domain.Exercise, error) {
	if name == "" {
		return nil, ErrCatalogValidation
	}
	if coachID == primitive.NilObjectID || exerciseID == primitive.NilObjectID {
		return nil, errors.New("coach ID and exercise ID are required")
	}

	existing, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if existing.CoachID != coachID {
		return nil, ErrCatalogAccessDenied
	}

	existing.Name = name
	existing.Description = description
	existing.ImageRef = imageRef
	existing.Category = category
	existing.MuscleGroup = muscleGroup

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	s.cacheDelete(ctx, exerciseID)
	return existing, nil
}

// DeleteExercise handles deleting a catalog entry, ensuring ownership.
func (s *catalogService) DeleteExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID) error {
	if coachID == primitive.NilObjectID || exerciseID == primitive.NilObjectID {
		return errors.New("coach ID and exercise ID are required")
	}

	// The repository filter includes the coach ID, so ownership is enforced
	// at the DB level.
	if err := s.exerciseRepo.Delete(ctx, exerciseID, coachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	s.cacheDelete(ctx, exerciseID)
	return nil
}

// --- cache helpers ---
// Cache failures are logged and ignored; mongo stays the source of truth.

func exerciseCacheKey(id primitive.ObjectID) string {
	return "exercise:" + id.Hex()
}

func (s *catalogService) cacheGet(ctx context.Context, id primitive.ObjectID) *domain.Exercise {
	if s.rdx == nil {
		return nil
	}
	data, err := s.rdx.Get(ctx, exerciseCacheKey(id)).Bytes()
	if err != nil {
		return nil // miss or redis unavailable
	}
	var exercise domain.Exercise
	if err := json.Unmarshal(data, &exercise); err != nil {
		return nil
	}
	return &exercise
}

func (s *catalogService) cacheSet(ctx context.Context, exercise *domain.Exercise) {
	if s.rdx == nil {
		return
	}
	data, err := json.Marshal(exercise)
	if err != nil {
		return
	}
	if err := s.rdx.Set(ctx, exerciseCacheKey(exercise.ID), data, exerciseCacheTTL).Err(); err != nil {
		log.Printf("WARN: failed to cache exercise %s: %v", exercise.ID.Hex(), err)
	}
}

func (s *catalogService) cacheDelete(ctx context.Context, id primitive.ObjectID) {
	if s.rdx == nil {
		return
	}
	if err := s.rdx.Del(ctx, exerciseCacheKey(id)).Err(); err != nil {
		log.Printf("WARN: failed to evict exercise %s from cache: %v", id.Hex(), err)
	}
}
