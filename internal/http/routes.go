package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	middleware "duty-tracker.com/duty-tracker/internal/http/middlewares"
	"duty-tracker.com/duty-tracker/internal/limiter"
)

type RouterOptions struct {
	// Limiter is optional; nil disables rate limiting.
	Limiter limiter.Limiter
	Logger  *zap.Logger
}

func Register(e *echo.Echo, h *Handler) {
	api := e.Group("/api")

	api.GET("/health", h.Health)
	api.GET("/duties", h.ListDuties)
	api.POST("/duties", h.CreateDuty)
	api.PUT("/duties/:id", h.UpdateDuty)
	api.DELETE("/duties/:id", h.DeleteDuty)
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewErrorHandler(logger)

	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit("64K"))
	if opts.Limiter != nil {
		e.Use(middleware.RateLimiter(opts.Limiter, logger))
	}

	Register(e, h)

	return CORS(e)
}
