package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/labstack/echo/v4"
)

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case models.CodeValidation:
		return http.StatusBadRequest
	case models.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case models.CodeUnauthorized:
		return http.StatusUnauthorized
	case models.CodePermissionDenied:
		return http.StatusForbidden
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return models.CodeValidation
	case http.StatusRequestEntityTooLarge:
		return models.CodePayloadTooLarge
	case http.StatusUnauthorized:
		return models.CodeUnauthorized
	case http.StatusForbidden:
		return models.CodePermissionDenied
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return models.CodeNotFound
	default:
		return models.CodePersistence
	}
}

// fail converts a service error into an HTTP error. Client-facing codes keep
// their message; backend failures are reported by the action that failed.
func fail(action string, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewPersistenceError(action, err)
	}
	msg := appErr.Message
	switch appErr.Code {
	case models.CodeStorage, models.CodePersistence:
		msg = "Failed to " + action
	case models.CodePartialFailure:
		msg = "Failed to " + action + " completely, please refresh"
	}
	return &echo.HTTPError{
		Code:     StatusFor(appErr.Code),
		Message:  models.ErrorResponse{Error: msg, Code: appErr.Code},
		Internal: err,
	}
}

// HTTPErrorHandler renders every error as {"error", "code"}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var body models.ErrorResponse
	status := http.StatusInternalServerError

	var he *echo.HTTPError
	var appErr *models.AppError
	switch {
	case errors.As(err, &he):
		status = he.Code
		switch m := he.Message.(type) {
		case models.ErrorResponse:
			body = m
		case string:
			body = models.ErrorResponse{Error: m, Code: codeForStatus(status)}
		default:
			body = models.ErrorResponse{Error: http.StatusText(status), Code: codeForStatus(status)}
		}
	case errors.As(err, &appErr):
		HTTPErrorHandler(fail("complete the request", err), c)
		return
	default:
		body = models.ErrorResponse{Error: "Internal server error", Code: models.CodePersistence}
	}

	if status >= http.StatusInternalServerError {
		observability.GlobalLogger.ErrorContext(c.Request().Context(), "request failed",
			"path", c.Path(), "status", status, "error", err.Error(),
			"correlation_id", observability.ExtractCorrelationID(c.Request().Context()))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		observability.GlobalLogger.Warn("error response not written", "error", writeErr.Error())
	}
}
