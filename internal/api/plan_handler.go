package api

import (
	"errors"
	"fmt"
	"net/http"

	"fitstudio/roster-app/internal/domain"
	"fitstudio/roster-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler exposes the session plan store over HTTP. Draft endpoints are
// coach-only; the saved plan is readable by any authenticated user.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request/Response Structs ---

type AddExerciseRequest struct {
	ExerciseID string         `json:"exerciseId" binding:"required"`
	Phase      domain.Phase   `json:"phase" binding:"required,oneof=warmup main cooldown"`
	Metrics    map[string]int `json:"metrics"`
}

type UpdateMetricRequest struct {
	Metric string `json:"metric" binding:"required"`
	Value  int    `json:"value"` // zero is a legal metric value
}

type CopyPlanRequest struct {
	FromSessionID string `json:"fromSessionId" binding:"required"`
}

// --- Handler Methods ---

// AddExercise appends a prescription to the coach's working copy.
func (h *PlanHandler) AddExercise(c *gin.Context) {
	sessionID, coachID, ok := h.planContext(c)
	if !ok {
		return
	}

	var req AddExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	prescription, err := h.planService.AddExercise(c.Request.Context(), sessionID, coachID, exerciseID, req.Phase, req.Metrics)
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prescription)
}

// UpdateMetric replaces a single metric value on a draft prescription.
func (h *PlanHandler) UpdateMetric(c *gin.Context) {
	sessionID, coachID, ok := h.planContext(c)
	if !ok {
		return
	}

	var req UpdateMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err := h.planService.UpdateMetric(c.Request.Context(), sessionID, coachID, c.Param("prescriptionId"), req.Metric, req.Value)
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveExercise deletes a prescription from the working copy. Removing an
// absent prescription succeeds silently.
func (h *PlanHandler) RemoveExercise(c *gin.Context) {
	sessionID, coachID, ok := h.planContext(c)
	if !ok {
		return
	}

	err := h.planService.RemoveExercise(c.Request.Context(), sessionID, coachID, c.Param("prescriptionId"))
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Save publishes the working copy as the durable plan version.
func (h *PlanHandler) Save(c *gin.Context) {
	sessionID, coachID, ok := h.planContext(c)
	if !ok {
		return
	}

	view, err := h.planService.Save(c.Request.Context(), sessionID, coachID)
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetPlan returns the last-saved plan grouped by phase. An unpublished plan
// renders as an empty view, not an error.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	view, err := h.planService.GetPlan(c.Request.Context(), sessionID)
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetDraft returns the editing coach's current working copy.
func (h *PlanHandler) GetDraft(c *gin.Context) {
	sessionID, coachID, ok := h.planContext(c)
	if !ok {
		return
	}

	view, err := h.planService.GetDraft(c.Request.Context(), sessionID, coachID)
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DiscardDraft drops unsaved edits.
func (h *PlanHandler) DiscardDraft(c *gin.Context) {
	sessionID, coachID, ok := h.planContext(c)
	if !ok {
		return
	}

	if err := h.planService.DiscardDraft(c.Request.Context(), sessionID, coachID); err != nil {
		h.handlePlanError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CopyFromSession seeds the working copy from another session's saved plan.
func (h *PlanHandler) CopyFromSession(c *gin.Context) {
	sessionID, coachID, ok := h.planContext(c)
	if !ok {
		return
	}

	var req CopyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	fromID, err := primitive.ObjectIDFromHex(req.FromSessionID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid source session ID format")
		return
	}

	view, err := h.planService.CopyFromSession(c.Request.Context(), fromID, sessionID, coachID)
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// --- helpers ---

func (h *PlanHandler) planContext(c *gin.Context) (sessionID, coachID primitive.ObjectID, ok bool) {
	sessionID, ok = sessionIDParam(c)
	if !ok {
		return
	}
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	coachID, err = primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Invalid user ID in token")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return sessionID, coachID, true
}

func (h *PlanHandler) handlePlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrDuplicateExercise):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidMetric):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPrescriptionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
