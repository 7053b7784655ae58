package validators

import (
	"errors"
	"io"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "duty-tracker.com/duty-tracker/internal/errors"
	model "duty-tracker.com/duty-tracker/pkg/models"
)

func ParseDutyRequest(c echo.Context) (model.DutyCreate, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return model.DutyCreate{}, httpErr
		}
		return model.DutyCreate{}, apperrors.ErrInvalidJSON
	}

	payload, err := model.ParseDutyCreate(body)
	if err != nil {
		return model.DutyCreate{}, apperrors.Validation(err)
	}

	return payload, nil
}

func ParseDutyID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.ErrInvalidDutyID
	}
	return id, nil
}
