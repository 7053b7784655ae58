package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"

	StoreGorm = "gorm"
	StoreSqlx = "sqlx"

	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// Config is read from an optional YAML file (CONFIG_FILE) and then from the
// environment; environment variables win.
type Config struct {
	AppHost string `yaml:"app_host"`
	Port    int    `yaml:"port"`

	DatabaseDriver   string `yaml:"db_driver"`
	DatabaseStore    string `yaml:"db_store"`
	DatabaseHost     string `yaml:"db_host"`
	DatabasePort     int    `yaml:"db_port"`
	DatabaseName     string `yaml:"db_name"`
	DatabaseUser     string `yaml:"db_user"`
	DatabasePassword string `yaml:"db_password"`
	SQLitePath       string `yaml:"sqlite_path"`
	AutoMigrate      bool   `yaml:"auto_migrate"`

	RateLimit        int    `yaml:"rate_limit_per_minute"`
	RateLimitBackend string `yaml:"rate_limit_backend"`
	RedisHost        string `yaml:"redis_host"`
	RedisPort        int    `yaml:"redis_port"`
	RedisKeyPrefix   string `yaml:"redis_key_prefix"`

	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	LogLevel               string `yaml:"log_level"`
	LogFormat              string `yaml:"log_format"`

	APIURL            string `yaml:"api_url"`
	APITimeoutSeconds int    `yaml:"api_timeout_seconds"`
}

func defaults() Config {
	return Config{
		AppHost:                "0.0.0.0",
		Port:                   4000,
		DatabaseDriver:         DriverPostgres,
		DatabaseStore:          StoreGorm,
		DatabaseHost:           "db",
		DatabasePort:           5432,
		DatabaseName:           "tododb",
		DatabaseUser:           "postgres",
		DatabasePassword:       "password",
		SQLitePath:             "duties.db",
		AutoMigrate:            true,
		RateLimit:              120,
		RateLimitBackend:       RateLimitMemory,
		RedisHost:              "127.0.0.1",
		RedisPort:              6379,
		RedisKeyPrefix:         "duty_rate_limit",
		ShutdownTimeoutSeconds: 20,
		LogLevel:               "info",
		LogFormat:              "json",
		APIURL:                 "http://localhost:4000/api",
		APITimeoutSeconds:      10,
	}
}

func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	var err error
	cfg.AppHost = getEnv("APP_HOST", cfg.AppHost)
	cfg.Port, err = getEnvAsInt("PORT", cfg.Port, err)
	cfg.DatabaseDriver = strings.ToLower(getEnv("DB_DRIVER", cfg.DatabaseDriver))
	cfg.DatabaseStore = strings.ToLower(getEnv("DB_STORE", cfg.DatabaseStore))
	cfg.DatabaseHost = getEnv("DB_HOST", getEnv("POSTGRES_HOST", cfg.DatabaseHost))
	cfg.DatabasePort, err = getEnvAsInt("POSTGRES_PORT", cfg.DatabasePort, err)
	cfg.DatabasePort, err = getEnvAsInt("DB_PORT", cfg.DatabasePort, err)
	cfg.DatabaseName = getEnv("DB_NAME", getEnv("POSTGRES_DB", cfg.DatabaseName))
	cfg.DatabaseUser = getEnv("DB_USER", getEnv("POSTGRES_USER", cfg.DatabaseUser))
	cfg.DatabasePassword = getEnv("DB_PASSWORD", getEnv("POSTGRES_PASSWORD", cfg.DatabasePassword))
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.AutoMigrate, err = getEnvAsBool("AUTO_MIGRATE", cfg.AutoMigrate, err)
	cfg.RateLimit, err = getEnvAsInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimit, err)
	cfg.RateLimitBackend = strings.ToLower(getEnv("RATE_LIMIT_BACKEND", cfg.RateLimitBackend))
	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort, err = getEnvAsInt("REDIS_PORT", cfg.RedisPort, err)
	cfg.RedisKeyPrefix = getEnv("REDIS_KEY_PREFIX", cfg.RedisKeyPrefix)
	cfg.ShutdownTimeoutSeconds, err = getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeoutSeconds, err)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))
	cfg.APIURL = getEnv("API_URL", cfg.APIURL)
	cfg.APITimeoutSeconds, err = getEnvAsInt("API_TIMEOUT_SECONDS", cfg.APITimeoutSeconds, err)
	if err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) AppURL() string {
	return fmt.Sprintf("%s:%d", c.AppHost, c.Port)
}

func (c Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func validate(cfg Config) error {
	var errs []error

	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, errors.New("PORT must be between 1 and 65535"))
	}
	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	case DriverMySQL:
		if cfg.DatabaseStore != StoreSqlx {
			errs = append(errs, errors.New("DB_DRIVER=mysql requires DB_STORE=sqlx"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be one of postgres, mysql, sqlite (got %q)", cfg.DatabaseDriver))
	}
	if cfg.DatabaseStore != StoreGorm && cfg.DatabaseStore != StoreSqlx {
		errs = append(errs, fmt.Errorf("DB_STORE must be gorm or sqlx (got %q)", cfg.DatabaseStore))
	}
	if cfg.DatabaseDriver == DriverSQLite && cfg.SQLitePath == "" {
		errs = append(errs, errors.New("SQLITE_PATH must not be empty"))
	}
	if cfg.DatabaseDriver != DriverSQLite && cfg.DatabaseHost == "" {
		errs = append(errs, errors.New("DB_HOST must not be empty"))
	}
	if cfg.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0"))
	}
	if cfg.RateLimitBackend != RateLimitMemory && cfg.RateLimitBackend != RateLimitRedis {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis (got %q)", cfg.RateLimitBackend))
	}
	if cfg.ShutdownTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0"))
	}
	if cfg.APIURL == "" {
		errs = append(errs, errors.New("API_URL must not be empty"))
	}
	if cfg.APITimeoutSeconds <= 0 {
		errs = append(errs, errors.New("API_TIMEOUT_SECONDS must be greater than 0"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvAsInt keeps the first parse error so Load can report it once.
func getEnvAsInt(key string, defaultVal int, prevErr error) (int, error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return defaultVal, errors.Join(prevErr, fmt.Errorf("invalid integer value for %s", key))
		}
		return i, prevErr
	}
	return defaultVal, prevErr
}

func getEnvAsBool(key string, defaultVal bool, prevErr error) (bool, error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return defaultVal, errors.Join(prevErr, fmt.Errorf("invalid boolean value for %s", key))
		}
		return b, prevErr
	}
	return defaultVal, prevErr
}
