package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"duty-tracker.com/duty-tracker/db"
	config "duty-tracker.com/duty-tracker/internal/configs"
	httpapi "duty-tracker.com/duty-tracker/internal/http"
	"duty-tracker.com/duty-tracker/internal/limiter"
	"duty-tracker.com/duty-tracker/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the duty tracker HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		if cfg.AutoMigrate {
			if err := db.Up(cfg.DatabaseDriver, cfg.MigrationURL()); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			logger.Info("database schema is up to date", zap.String("driver", cfg.DatabaseDriver))
		}

		dutyRepo, closeDB, err := config.NewDutyRepository(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closeDB() }()

		rateLimiter, closeLimiter, err := newLimiter(cfg)
		if err != nil {
			return err
		}
		defer closeLimiter()

		dutyService := services.NewDutyService(dutyRepo)
		handler := httpapi.NewHandler(dutyService, logger)

		server := &http.Server{
			Addr: cfg.AppURL(),
			Handler: httpapi.NewRouter(handler, httpapi.RouterOptions{
				Limiter: rateLimiter,
				Logger:  logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("HTTP server listening", zap.String("addr", cfg.AppURL()))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		logger.Info("HTTP server shut down gracefully")
		return nil
	},
}

// newLimiter builds the configured rate limiter and a function that
// releases its resources.
func newLimiter(cfg config.Config) (limiter.Limiter, func(), error) {
	switch cfg.RateLimitBackend {
	case config.RateLimitRedis:
		redisClient, err := config.NewRedisClient(cfg.RedisAddr())
		if err != nil {
			return nil, nil, err
		}
		l, err := limiter.NewRedisLimiter(redisClient, cfg.RedisKeyPrefix, cfg.RateLimit, time.Minute)
		if err != nil {
			redisClient.Close()
			return nil, nil, err
		}
		return l, redisClient.Close, nil
	default:
		l, err := limiter.NewMemoryLimiter(cfg.RateLimit, time.Minute)
		if err != nil {
			return nil, nil, err
		}
		return l, func() {}, nil
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
