// Package v1 provides the HTTP handlers for the assistant API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stgmed/assistant/internal/domain"
	"github.com/stgmed/assistant/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")

	api.POST("/search", h.Search)
	api.GET("/chat/:sessionId", h.GetChatHistory)

	api.POST("/case-study/generate", h.GenerateCaseStudy)
	api.POST("/case-study/submit", h.SubmitAnswers)
	api.GET("/case-study/:sessionId", h.GetCaseStudies)

	api.GET("/health", h.Health)
}

// Health returns health status.
// GET /api/health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Ghana STG Medical Assistant API is running",
	})
}

// writeError maps domain errors to responses. Validation and not-found
// errors carry precise messages; everything else gets the endpoint's
// generic message so upstream diagnostics never reach the client.
func writeError(c echo.Context, err error, genericMessage string) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": ve.Error()})
	}
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Case study not found"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"message": genericMessage})
}
