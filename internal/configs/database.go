package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	repository "duty-tracker.com/duty-tracker/internal/repositories"
)

// PostgresURL is the lib/pq / golang-migrate connection string.
func (c Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DatabaseUser, c.DatabasePassword),
		Host:     net.JoinHostPort(c.DatabaseHost, strconv.Itoa(c.DatabasePort)),
		Path:     "/" + c.DatabaseName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c Config) MySQLDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DatabaseUser
	mc.Passwd = c.DatabasePassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DatabaseHost, strconv.Itoa(c.DatabasePort))
	mc.DBName = c.DatabaseName
	mc.Collation = "utf8mb4_bin"
	mc.ParseTime = true
	mc.Loc = time.UTC
	// Report matched rather than changed rows so renaming a duty to its
	// current name is not mistaken for a missing row.
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

// MigrationURL is the golang-migrate database URL for the configured driver.
func (c Config) MigrationURL() string {
	switch c.DatabaseDriver {
	case DriverMySQL:
		return "mysql://" + c.MySQLDSN()
	case DriverSQLite:
		return "sqlite3://" + c.SQLitePath
	default:
		return c.PostgresURL()
	}
}

func NewGormDatabase(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{DSN: cfg.PostgresURL()})
	case DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("gorm store does not support driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db open failed: %w", err)
	}

	return db, nil
}

func NewSqlxDatabase(cfg Config) (*sqlx.DB, error) {
	var (
		driverName string
		dsn        string
	)
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		driverName, dsn = "postgres", cfg.PostgresURL()
	case DriverMySQL:
		driverName, dsn = "mysql", cfg.MySQLDSN()
	case DriverSQLite:
		driverName, dsn = "sqlite3", cfg.SQLitePath
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.DatabaseDriver)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlx: %w", err)
	}

	return db, nil
}

// NewDutyRepository opens the configured store. The returned close function
// releases the underlying pool.
func NewDutyRepository(cfg Config) (repository.DutyRepository, func() error, error) {
	switch cfg.DatabaseStore {
	case StoreSqlx:
		db, err := NewSqlxDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.DatabaseDriver == DriverSQLite {
			db.SetMaxOpenConns(1)
		}
		return repository.NewSqlxDutyRepository(db), db.Close, nil
	default:
		db, err := NewGormDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		if cfg.DatabaseDriver == DriverSQLite {
			sqlDB.SetMaxOpenConns(1)
		}
		return repository.NewGormDutyRepository(db), sqlDB.Close, nil
	}
}
