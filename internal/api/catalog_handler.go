package api

import (
	"errors"
	"fmt"
	"net/http"

	"fitstudio/roster-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogHandler exposes the exercise catalog over HTTP.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- Request Structs ---

type ExerciseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageRef    string `json:"imageRef"`
	Category    string `json:"category"`
	MuscleGroup string `json:"muscleGroup"`
}

// --- Handler Methods ---

// CreateExercise adds a catalog entry owned by the authenticated coach.
func (h *CatalogHandler) CreateExercise(c *gin.Context) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	coachID, ok := userIDFromToken(c)
	if !ok {
		return
	}

	exercise, err := h.catalogService.CreateExercise(c.Request.Context(), coachID,
		req.Name, req.Description, req.ImageRef, req.Category, req.MuscleGroup)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

// GetExercise returns a single catalog entry.
func (h *CatalogHandler) GetExercise(c *gin.Context) {
	exerciseID, ok := exerciseIDParam(c)
	if !ok {
		return
	}

	exercise, err := h.catalogService.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercise)
}

// ListMine returns the authenticated coach's catalog entries.
func (h *CatalogHandler) ListMine(c *gin.Context) {
	coachID, ok := userIDFromToken(c)
	if !ok {
		return
	}

	exercises, err := h.catalogService.GetExercisesByCoach(c.Request.Context(), coachID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// UpdateExercise modifies a catalog entry owned by the authenticated coach.
func (h *CatalogHandler) UpdateExercise(c *gin.Context) {
	exerciseID, ok := exerciseIDParam(c)
	if !ok {
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	coachID, ok := userIDFromToken(c)
	if !ok {
		return
	}

	exercise, err := h.catalogService.UpdateExercise(c.Request.Context(), coachID, exerciseID,
		req.Name, req.Description, req.ImageRef, req.Category, req.MuscleGroup)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercise)
}

// DeleteExercise removes a catalog entry owned by the authenticated coach.
func (h *CatalogHandler) DeleteExercise(c *gin.Context) {
	exerciseID, ok := exerciseIDParam(c)
	if !ok {
		return
	}

	coachID, ok := userIDFromToken(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteExercise(c.Request.Context(), coachID, exerciseID); err != nil {
		h.handleCatalogError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- helpers ---

func exerciseIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("exerciseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCatalogAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrCatalogValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
