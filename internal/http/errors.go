package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/composed/internal/apperr"
	"github.com/fyrsmithlabs/composed/internal/logging"
)

// handleError renders every handler error as {"detail", "location"}.
// Faults map through apperr and echo errors keep their code. Anything else
// is a 500 with a generic detail.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := statusForError(err)
	logger := s.logger.With(logging.ContextFields(c.Request().Context())...)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Int("status", status), zap.String("detail", body.Detail))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		logger.Warn("failed to write error response", zap.Error(werr))
	}
}

// statusForError maps err to its status code and response body.
func statusForError(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		detail := http.StatusText(he.Code)
		if he.Message != nil {
			detail = fmt.Sprint(he.Message)
		}
		return he.Code, ErrorResponse{Detail: detail}
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
		return http.StatusInternalServerError, ErrorResponse{Detail: http.StatusText(http.StatusInternalServerError)}
	}
	return ae.Status(), ErrorResponse{Detail: ae.Error(), Location: ae.Location}
}
