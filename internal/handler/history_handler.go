package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadscout/api/internal/entity"
	"github.com/leadscout/api/internal/session"
)

// HistoryHandler serves past generation runs.
type HistoryHandler struct {
	sessions *session.Manager
}

// NewHistoryHandler constructs a HistoryHandler.
func NewHistoryHandler(sessions *session.Manager) *HistoryHandler {
	return &HistoryHandler{sessions: sessions}
}

// List handles GET /history, newest run first.
func (h *HistoryHandler) List(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "invalid token subject")
	}

	data, err := h.sessions.Data(c.Request().Context(), userID)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "unable to load history")
	}

	history := data.History
	if history == nil {
		history = []entity.HistoryEntry{}
	}
	return Success(c, http.StatusOK, "history retrieved", history)
}
