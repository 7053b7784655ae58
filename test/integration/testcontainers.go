package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/lib/pq"

	"duty-tracker.com/duty-tracker/db"
	config "duty-tracker.com/duty-tracker/internal/configs"
	httpapi "duty-tracker.com/duty-tracker/internal/http"
	repository "duty-tracker.com/duty-tracker/internal/repositories"
	"duty-tracker.com/duty-tracker/internal/services"
)

// TestContext holds the resources shared by every scenario.
type TestContext struct {
	Container   testcontainers.Container
	DatabaseURL string
	DB          *sqlx.DB
	GormDB      *gorm.DB
}

// NewTestContext starts a PostgreSQL container and migrates it.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tododb_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := db.Up(config.DriverPostgres, connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	sqlxDB, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect with sqlx: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{DSN: connStr}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = sqlxDB.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect with gorm: %w", err)
	}

	return &TestContext{
		Container:   pgContainer,
		DatabaseURL: connStr,
		DB:          sqlxDB,
		GormDB:      gormDB,
	}, nil
}

// StartServer serves the API in-process on top of the requested store.
func (tc *TestContext) StartServer(store string) (*httptest.Server, error) {
	var repo repository.DutyRepository
	switch store {
	case config.StoreGorm:
		repo = repository.NewGormDutyRepository(tc.GormDB)
	case config.StoreSqlx:
		repo = repository.NewSqlxDutyRepository(tc.DB)
	default:
		return nil, fmt.Errorf("unknown store %q", store)
	}

	handler := httpapi.NewHandler(services.NewDutyService(repo), nil)
	return httptest.NewServer(httpapi.NewRouter(handler, httpapi.RouterOptions{})), nil
}

// ResetDuties empties the duties table between scenarios.
func (tc *TestContext) ResetDuties(ctx context.Context) error {
	_, err := tc.DB.ExecContext(ctx, "TRUNCATE duties RESTART IDENTITY")
	return err
}

func (tc *TestContext) CountDuties(ctx context.Context) (int, error) {
	var n int
	err := tc.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM duties")
	return n, err
}

func (tc *TestContext) Close(ctx context.Context) {
	if tc.DB != nil {
		_ = tc.DB.Close()
	}
	if tc.GormDB != nil {
		if sqlDB, err := tc.GormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
