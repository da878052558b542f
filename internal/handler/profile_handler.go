package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadscout/api/internal/session"
)

// ProfileHandler serves the account's last-used business profile.
type ProfileHandler struct {
	sessions *session.Manager
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(sessions *session.Manager) *ProfileHandler {
	return &ProfileHandler{sessions: sessions}
}

// Latest handles GET /profile.
func (h *ProfileHandler) Latest(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "invalid token subject")
	}

	data, err := h.sessions.Data(c.Request().Context(), userID)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "unable to load profile")
	}
	if data.Profile == nil {
		return Error(c, http.StatusNotFound, "no saved business profile")
	}

	return Success(c, http.StatusOK, "profile retrieved", data.Profile)
}
