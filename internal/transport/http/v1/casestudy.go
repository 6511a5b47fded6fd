package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/stgmed/assistant/internal/domain"
)

// GenerateCaseStudy creates a new case study for the session.
// POST /api/case-study/generate
func (h *Handler) GenerateCaseStudy(c echo.Context) error {
	var req domain.GenerateCaseStudyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	summary, err := h.service.GenerateCaseStudy(c.Request().Context(), req.SessionID)
	if err != nil {
		return writeError(c, err, "Failed to generate case study")
	}
	return c.JSON(http.StatusOK, summary)
}

// SubmitAnswers evaluates a diagnosis/treatment submission.
// POST /api/case-study/submit
func (h *Handler) SubmitAnswers(c echo.Context) error {
	var req domain.SubmitAnswersRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}

	result, err := h.service.SubmitCaseStudy(c.Request().Context(), req.CaseStudyID, req.Diagnosis, req.Treatment)
	if err != nil {
		return writeError(c, err, "Failed to submit answers")
	}
	return c.JSON(http.StatusOK, result)
}

// GetCaseStudies returns a session's case studies in creation order.
// GET /api/case-study/:sessionId
func (h *Handler) GetCaseStudies(c echo.Context) error {
	sessionID := c.Param("sessionId")

	cases, err := h.service.CaseStudies(c.Request().Context(), sessionID)
	if err != nil {
		return writeError(c, err, "Unable to retrieve case studies")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"caseStudies": cases,
	})
}
