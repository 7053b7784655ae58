package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "duty-tracker.com/duty-tracker/internal/errors"
)

const (
	statusFail  = "fail"
	statusError = "error"
)

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func statusLabel(code int) string {
	if code >= http.StatusInternalServerError {
		return statusError
	}
	return statusFail
}

func respondError(c echo.Context, exc *apperrors.Exception) error {
	return c.JSON(exc.StatusCode, errorResponse{
		Status:  statusLabel(exc.StatusCode),
		Message: exc.Message,
	})
}

// NewErrorHandler is the single place where errors become responses.
// Causes of internal errors are logged, never sent.
func NewErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := translate(err, c, logger)

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, errorResponse{Status: statusLabel(code), Message: message})
		}
		if err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
	}
}

func translate(err error, c echo.Context, logger *zap.Logger) (int, string) {
	var exc *apperrors.Exception
	if errors.As(err, &exc) {
		switch exc.Kind {
		case apperrors.KindValidation, apperrors.KindNotFound:
			return exc.StatusCode, exc.Message
		case apperrors.KindInternal:
			logUnexpected(logger, c, exc.Err)
			return http.StatusInternalServerError, exc.Message
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code >= http.StatusInternalServerError {
			logUnexpected(logger, c, err)
			return httpErr.Code, apperrors.Internal(err).Message
		}
		if httpErr.Message == nil {
			return httpErr.Code, http.StatusText(httpErr.Code)
		}
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	}

	logUnexpected(logger, c, err)
	return http.StatusInternalServerError, apperrors.Internal(err).Message
}

func logUnexpected(logger *zap.Logger, c echo.Context, err error) {
	logger.Error("unexpected error",
		zap.Error(err),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
	)
}
