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

// RosterHandler exposes the roster engine over HTTP.
type RosterHandler struct {
	rosterService service.RosterService
	authService   service.AuthService
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(rosterService service.RosterService, authService service.AuthService) *RosterHandler {
	return &RosterHandler{
		rosterService: rosterService,
		authService:   authService,
	}
}

// --- Request/Response Structs ---

type WalkInRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
}

type CheckInRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

type EnrollmentResponse struct {
	ID            string                 `json:"id"`
	ParticipantID string                 `json:"participantId,omitempty"`
	DisplayName   string                 `json:"displayName"`
	State         domain.EnrollmentState `json:"state"`
	Plan          string                 `json:"plan,omitempty"`
	JoinedAt      time.Time              `json:"joinedAt"`
}

type RosterResponse struct {
	SessionID string               `json:"sessionId"`
	Capacity  int                  `json:"capacity"`
	Enrolled  int                  `json:"enrolled"`
	Entries   []EnrollmentResponse `json:"entries"`
	Waitlist  []EnrollmentResponse `json:"waitlist"`
}

// --- Handler Methods ---

// RequestBooking books the authenticated user into the session, or waitlists
// them when the session is full.
func (h *RosterHandler) RequestBooking(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	snapshot, err := h.rosterService.RequestBooking(c.Request.Context(), sessionID, user.ID, user.Name, user.MembershipPlan)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapRosterToResponse(snapshot))
}

// CancelBooking cancels the authenticated user's enrollment.
func (h *RosterHandler) CancelBooking(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	snapshot, err := h.rosterService.CancelBooking(c.Request.Context(), sessionID, user.ID)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRosterToResponse(snapshot))
}

// RegisterWalkIn admits a walk-in at the front desk, capacity notwithstanding.
func (h *RosterHandler) RegisterWalkIn(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req WalkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	snapshot, err := h.rosterService.RegisterWalkIn(c.Request.Context(), sessionID, req.DisplayName)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapRosterToResponse(snapshot))
}

// CheckIn marks a single participant attended.
func (h *RosterHandler) CheckIn(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	participantID, err := primitive.ObjectIDFromHex(req.ParticipantID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid participant ID format")
		return
	}

	snapshot, err := h.rosterService.CheckIn(c.Request.Context(), sessionID, participantID)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRosterToResponse(snapshot))
}

// MarkAllPresent checks in every admitted enrollment for the session.
func (h *RosterHandler) MarkAllPresent(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	snapshot, err := h.rosterService.MarkAllPresent(c.Request.Context(), sessionID)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRosterToResponse(snapshot))
}

// GetRoster returns the derived roster snapshot.
func (h *RosterHandler) GetRoster(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	snapshot, err := h.rosterService.GetRoster(c.Request.Context(), sessionID)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRosterToResponse(snapshot))
}

// --- helpers ---

func (h *RosterHandler) currentUser(c *gin.Context) (*domain.User, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return nil, false
	}
	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unknown user")
		return nil, false
	}
	return user, true
}

func (h *RosterHandler) handleRosterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyEnrolled):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotEnrolled):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConcurrencyConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// sessionIDParam parses the :sessionId path parameter.
func sessionIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format")
		return primitive.NilObjectID, false
	}
	return id, true
}

// MapEnrollmentToResponse converts a domain Enrollment to its DTO.
func MapEnrollmentToResponse(e *domain.Enrollment) EnrollmentResponse {
	resp := EnrollmentResponse{
		ID:          e.ID.Hex(),
		DisplayName: e.DisplayName,
		State:       e.State,
		Plan:        e.Plan,
		JoinedAt:    e.JoinedAt,
	}
	if e.ParticipantID != nil {
		resp.ParticipantID = e.ParticipantID.Hex()
	}
	return resp
}

// MapRosterToResponse converts a roster snapshot to its DTO.
func MapRosterToResponse(snapshot *domain.RosterSnapshot) RosterResponse {
	resp := RosterResponse{
		SessionID: snapshot.SessionID.Hex(),
		Capacity:  snapshot.Capacity,
		Enrolled:  snapshot.Enrolled,
		Entries:   make([]EnrollmentResponse, 0, len(snapshot.Entries)),
		Waitlist:  make([]EnrollmentResponse, 0, len(snapshot.Waitlist)),
	}
	for i := range snapshot.Entries {
		resp.Entries = append(resp.Entries, MapEnrollmentToResponse(&snapshot.Entries[i]))
	}
	for i := range snapshot.Waitlist {
		resp.Waitlist = append(resp.Waitlist, MapEnrollmentToResponse(&snapshot.Waitlist[i]))
	}
	return resp
}
