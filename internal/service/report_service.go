package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fitstudio/roster-app/internal/domain"
	"fitstudio/roster-app/internal/report"
	"fitstudio/roster-app/internal/repository"
	"fitstudio/roster-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNoArchivedReport = errors.New("no archived report exists for this session")
)

// --- Service Interface ---
// ReportService is the read-only export consumer: it renders roster and plan
// snapshots into PDFs and never triggers a mutation.
type ReportService interface {
	// GenerateSessionReport builds the session PDF, archives it to object
	// storage and records the archive metadata. Returns the PDF bytes for
	// immediate download alongside the metadata.
	GenerateSessionReport(ctx context.Context, sessionID primitive.ObjectID) ([]byte, *domain.Report, error)

	// ArchivedReportURL returns a presigned download URL for the most
	// recently archived report of a session.
	ArchivedReportURL(ctx context.Context, sessionID primitive.ObjectID) (string, error)

	// GenerateCheckInPass builds the QR check-in pass PDF for the
	// participant's active enrollment.
	GenerateCheckInPass(ctx context.Context, sessionID, participantID primitive.ObjectID) ([]byte, error)
}

// --- Service Implementation ---

// reportService implements the ReportService interface.
type reportService struct {
	sessionRepo    repository.SessionRepository
	enrollmentRepo repository.EnrollmentRepository
	reportRepo     repository.ReportRepository
	rosterService  RosterService
	planService    PlanService
	catalogService CatalogService
	fileStorage    storage.FileStorage
	passSecret     string
}

// NewReportService creates a new instance of reportService.
func NewReportService(
	sessionRepo repository.SessionRepository,
	enrollmentRepo repository.EnrollmentRepository,
	reportRepo repository.ReportRepository,
	rosterService RosterService,
	planService PlanService,
	catalogService CatalogService,
	fileStorage storage.FileStorage,
	passSecret string,
) ReportService {
	if passSecret == "" {
		panic("check-in pass secret cannot be empty") // Critical configuration
	}
	return &reportService{
		sessionRepo:    sessionRepo,
		enrollmentRepo: enrollmentRepo,
		reportRepo:     reportRepo,
		rosterService:  rosterService,
		planService:    planService,
		catalogService: catalogService,
		fileStorage:    fileStorage,
		passSecret:     passSecret,
	}
}

// GenerateSessionReport renders the current roster snapshot and the
// last-saved plan. Unsaved plan edits are invisible here by design.
func (s *reportService) GenerateSessionReport(ctx context.Context, sessionID primitive.ObjectID) ([]byte, *domain.Report, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}

	snapshot, err := s.rosterService.GetRoster(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	plan, err := s.planService.GetPlan(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	names := s.resolveExerciseNames(ctx, plan)

	pdfBytes, err := report.BuildSessionReport(session, snapshot, plan, names)
	if err != nil {
		return nil, nil, err
	}

	meta := &domain.Report{
		SessionID:   sessionID,
		S3ObjectKey: fmt.Sprintf("reports/%s/%s.pdf", sessionID.Hex(), uuid.NewString()),
		FileName:    fmt.Sprintf("session-%s.pdf", sessionID.Hex()),
		ContentType: "application/pdf",
		Size:        int64(len(pdfBytes)),
		GeneratedAt: time.Now().UTC(),
	}

	if err := s.fileStorage.UploadObject(ctx, meta.S3ObjectKey, meta.ContentType, pdfBytes); err != nil {
		// Archiving is best-effort; the caller still gets the PDF.
		log.Printf("WARN: failed to archive report for session %s: %v", sessionID.Hex(), err)
		return pdfBytes, nil, nil
	}
	if _, err := s.reportRepo.Create(ctx, meta); err != nil {
		log.Printf("WARN: failed to record report metadata for session %s: %v", sessionID.Hex(), err)
		return pdfBytes, nil, nil
	}

	return pdfBytes, meta, nil
}

// ArchivedReportURL returns a presigned link to the latest archived report.
func (s *reportService) ArchivedReportURL(ctx context.Context, sessionID primitive.ObjectID) (string, error) {
	meta, err := s.reportRepo.GetLatestBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNoArchivedReport
		}
		return "", err
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, meta.S3ObjectKey, storage.DefaultPresignedURLExpiry)
}

// GenerateCheckInPass builds the QR pass for a participant's enrollment.
func (s *reportService) GenerateCheckInPass(ctx context.Context, sessionID, participantID primitive.ObjectID) ([]byte, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.GetActiveByParticipant(ctx, sessionID, participantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}

	payload := report.SignedPassPayload(s.passSecret, sessionID.Hex(), enrollment.ID.Hex())
	return report.BuildCheckInPass(session, enrollment, payload)
}

// resolveExerciseNames looks up display names for every exercise referenced
// by the plan. A failed lookup falls back to the raw reference; the report
// must render regardless.
func (s *reportService) resolveExerciseNames(ctx context.Context, plan *domain.PlanView) report.ExerciseNames {
	names := make(report.ExerciseNames)
	collect := func(entries []domain.ExercisePrescription) {
		for _, e := range entries {
			if _, seen := names[e.ExerciseID]; seen {
				continue
			}
			exercise, err := s.catalogService.GetExerciseByID(ctx, e.ExerciseID)
			if err != nil {
				continue
			}
			names[e.ExerciseID] = exercise.Name
		}
	}
	collect(plan.Warmup)
	collect(plan.Main)
	collect(plan.Cooldown)
	return names
}
