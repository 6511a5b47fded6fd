package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/stgmed/assistant/internal/domain"
)

// Search answers a medical question within a session.
// POST /api/search
func (h *Handler) Search(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	resp, err := h.service.Ask(c.Request().Context(), req.SessionID, req.Question)
	if err != nil {
		return writeError(c, err, "Unable to process your medical question. Please try again.")
	}
	return c.JSON(http.StatusOK, resp)
}

// GetChatHistory returns a session's messages in order.
// GET /api/chat/:sessionId
func (h *Handler) GetChatHistory(c echo.Context) error {
	sessionID := c.Param("sessionId")

	messages, err := h.service.History(c.Request().Context(), sessionID)
	if err != nil {
		return writeError(c, err, "Unable to retrieve chat history.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}
