package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "duty-tracker.com/duty-tracker/internal/errors"
	"duty-tracker.com/duty-tracker/internal/http/validators"
	"duty-tracker.com/duty-tracker/internal/services"
)

type Handler struct {
	dutyService *services.DutyService
	logger      *zap.Logger
}

func NewHandler(dutyService *services.DutyService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		dutyService: dutyService,
		logger:      logger,
	}
}

func (h *Handler) ListDuties(c echo.Context) error {
	duties, err := h.dutyService.ListDuties(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, duties)
}

func (h *Handler) CreateDuty(c echo.Context) error {
	payload, err := validators.ParseDutyRequest(c)
	if err != nil {
		return err
	}

	duty, err := h.dutyService.CreateDuty(c.Request().Context(), payload)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, duty)
}

func (h *Handler) UpdateDuty(c echo.Context) error {
	id, err := validators.ParseDutyID(c)
	if err != nil {
		return err
	}

	payload, err := validators.ParseDutyRequest(c)
	if err != nil {
		return err
	}

	duty, err := h.dutyService.UpdateDuty(c.Request().Context(), id, payload)
	if errors.Is(err, apperrors.ErrDutyNotFound) {
		return respondError(c, apperrors.ErrDutyNotFound)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, duty)
}

func (h *Handler) DeleteDuty(c echo.Context) error {
	id, err := validators.ParseDutyID(c)
	if err != nil {
		return err
	}

	err = h.dutyService.DeleteDuty(c.Request().Context(), id)
	if errors.Is(err, apperrors.ErrDutyNotFound) {
		return respondError(c, apperrors.ErrDutyNotFound)
	}
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.dutyService.Ping(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, errorResponse{
			Status:  statusError,
			Message: "database unavailable",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
