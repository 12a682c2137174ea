package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/logger"
	"github.com/octobees/bedriftssok/internal/middleware"
)

// APIResponse describes the envelope used by service endpoints such as /healthz.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the failure body shared by all API endpoints.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
}

var now = time.Now

// Success sends a successful response using the shared envelope format.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	payload := APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	return c.JSON(status, payload)
}

// Error sends an error body stamped with the current UTC time in ISO-8601.
func Error(c echo.Context, status int, message, details string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if details == "" {
		details = "Unknown error"
	}
	payload := ErrorResponse{
		Error:     message,
		Details:   details,
		Timestamp: now().UTC().Format(middleware.TimestampFormat),
	}
	return c.JSON(status, payload)
}

// HTTPErrorHandler renders errors that escape handlers, recovered panics included,
// as an ErrorResponse.
func HTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	log = logger.OrNop(log)
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}
		message := http.StatusText(status)
		if message == "" {
			message = "Unexpected error"
		}

		if status >= http.StatusInternalServerError {
			log.Error("unhandled request error",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}
		if werr := Error(c, status, message, errorDetails(err)); werr != nil {
			log.Warn("failed to write error response", zap.Error(werr))
		}
	}
}
