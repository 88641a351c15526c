package api

import (
	"errors"
	"fmt"
	"net/http"

	"fitstudio/roster-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler exposes report generation and download over HTTP. Reports
// are pure reads over roster and plan snapshots.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// --- Handler Methods ---

// GenerateSessionReport builds the session PDF and streams it back. The
// generated file is also archived for later download.
func (h *ReportHandler) GenerateSessionReport(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	pdfBytes, meta, err := h.reportService.GenerateSessionReport(c.Request.Context(), sessionID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	fileName := fmt.Sprintf("session-%s.pdf", sessionID.Hex())
	if meta != nil {
		fileName = meta.FileName
	}
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// ArchivedReportURL returns a presigned download link for the latest
// archived report of a session.
func (h *ReportHandler) ArchivedReportURL(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	url, err := h.reportService.ArchivedReportURL(c.Request.Context(), sessionID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CheckInPass streams the authenticated user's QR check-in pass.
func (h *ReportHandler) CheckInPass(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	participantID, ok := userIDFromToken(c)
	if !ok {
		return
	}

	pdfBytes, err := h.reportService.GenerateCheckInPass(c.Request.Context(), sessionID, participantID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=pass-"+sessionID.Hex()+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// --- helpers ---

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotEnrolled):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoArchivedReport):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
