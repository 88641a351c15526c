package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitstudio/roster-app/internal/domain"
	"fitstudio/roster-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler exposes session scheduling over HTTP.
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// --- Request/Response Structs ---

type CreateSessionRequest struct {
	Title           string    `json:"title" binding:"required"`
	StartTime       time.Time `json:"startTime" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required,min=1"`
	Capacity        int       `json:"capacity" binding:"required,min=1"`
}

type SessionResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	Duration  string    `json:"duration"`
	Capacity  int       `json:"capacity"`
	CoachID   string    `json:"coachId"`
}

// --- Handler Methods ---

// CreateSession schedules a new class occurrence for the authenticated coach.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	coachID, ok := userIDFromToken(c)
	if !ok {
		return
	}

	session, err := h.sessionService.CreateSession(c.Request.Context(), coachID, req.Title, req.StartTime,
		time.Duration(req.DurationMinutes)*time.Minute, req.Capacity)
	if err != nil {
		if errors.Is(err, service.ErrSessionValidation) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	c.JSON(http.StatusCreated, MapSessionToResponse(session))
}

// GetSession returns a single session.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	c.JSON(http.StatusOK, MapSessionToResponse(session))
}

// ListUpcoming returns all sessions starting from now.
func (h *SessionHandler) ListUpcoming(c *gin.Context) {
	sessions, err := h.sessionService.GetUpcomingSessions(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	responses := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		responses = append(responses, MapSessionToResponse(&sessions[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// ListMine returns the authenticated coach's sessions.
func (h *SessionHandler) ListMine(c *gin.Context) {
	coachID, ok := userIDFromToken(c)
	if !ok {
		return
	}

	sessions, err := h.sessionService.GetSessionsByCoach(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	responses := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		responses = append(responses, MapSessionToResponse(&sessions[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// --- helpers ---

func userIDFromToken(c *gin.Context) (primitive.ObjectID, bool) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Invalid user ID in token")
		return primitive.NilObjectID, false
	}
	return id, true
}

// MapSessionToResponse converts a domain Session to its DTO.
func MapSessionToResponse(session *domain.Session) SessionResponse {
	return SessionResponse{
		ID:        session.ID.Hex(),
		Title:     session.Title,
		StartTime: session.StartTime,
		Duration:  session.Duration.String(),
		Capacity:  session.Capacity,
		CoachID:   session.CoachID.Hex(),
	}
}
