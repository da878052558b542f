package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/leadscout/api/internal/dto"
	"github.com/leadscout/api/internal/gemini"
	"github.com/leadscout/api/internal/service"
)

// GenerateHandler exposes the lead-generation workflow over HTTP.
type GenerateHandler struct {
	runs *service.WorkflowRegistry
}

// NewGenerateHandler constructs a GenerateHandler.
func NewGenerateHandler(runs *service.WorkflowRegistry) *GenerateHandler {
	return &GenerateHandler{runs: runs}
}

// readDocument pulls the optional uploaded PDF out of a multipart request.
func readDocument(c echo.Context) ([]byte, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return nil, nil
	}
	fh, err := c.FormFile("document")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Generate handles POST /generate. The run executes synchronously; progress
// is observable on the progress endpoint while it does.
func (h *GenerateHandler) Generate(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "invalid token subject")
	}

	var req dto.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	document, err := readDocument(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to read uploaded document")
	}

	result, err := h.runs.For(userID).Run(c.Request().Context(), req.Profile(), document)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, APIResponse{
				Status:  "error",
				Message: verr.Error(),
				Data:    verr.Fields,
			})
		case errors.Is(err, service.ErrRunInProgress):
			return Error(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrResetRequired):
			return Error(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrNoLeads):
			return Error(c, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, gemini.ErrBadLeadFormat):
			return Error(c, http.StatusBadGateway, "the lead search returned an unreadable response, please retry")
		default:
			return Error(c, http.StatusBadGateway, err.Error())
		}
	}

	return Success(c, http.StatusOK, "leads generated", dto.GenerateResponse{
		Summary: result.Summary,
		Leads:   result.Leads,
	})
}

// Progress handles GET /generate/progress.
func (h *GenerateHandler) Progress(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "invalid token subject")
	}

	status := h.runs.For(userID).Status()
	return Success(c, http.StatusOK, "run status", dto.ProgressResponse{
		State:    status.State.String(),
		Progress: status.Message,
		Error:    status.Err,
	})
}

// Reset handles POST /generate/reset.
func (h *GenerateHandler) Reset(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "invalid token subject")
	}

	if err := h.runs.For(userID).Reset(); err != nil {
		return Error(c, http.StatusConflict, err.Error())
	}
	return Success(c, http.StatusOK, "run reset", nil)
}
