package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/pkg/retry"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrDatabaseNotConfigured = errors.New("database is not configured")

type DBConfig struct {
	Driver          string
	SQLitePath      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string
	ConnectAttempts int
}

func NewDBConfig() *DBConfig {
	driver := strings.ToLower(sanitizeEnv(GetValueFromEnvironmentVariable("DB_DRIVER", DriverPostgres)))
	return &DBConfig{
		Driver:          driver,
		SQLitePath:      sanitizeEnv(GetValueFromEnvironmentVariable("SQLITE_PATH", "clawsec.db")),
		MaxIdleConns:    10,
		MaxOpenConns:    50,
		ConnMaxLifetime: 5 * time.Minute,
		SSLMode:         "require",
		ConnectAttempts: 3,
	}
}

// IsConfigured reports whether any database connection settings are present.
func (c *DBConfig) IsConfigured() bool {
	if c.Driver == DriverSQLite {
		return true
	}
	return sanitizeEnv(GetValueFromEnvironmentVariable("APP_DATABASE_URL", "")) != "" ||
		sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_HOST", "")) != ""
}

func (c *DBConfig) dialector(logger *log.Logger) (gorm.Dialector, error) {
	switch c.Driver {
	case DriverSQLite:
		logger.Info("Using SQLite database", "path", c.SQLitePath)
		return sqlite.Open(c.SQLitePath), nil
	case DriverPostgres, "":
		dsn, err := c.postgresDSN(logger)
		if err != nil {
			return nil, err
		}
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}
}

func (c *DBConfig) postgresDSN(logger *log.Logger) (string, error) {
	if url := sanitizeEnv(GetValueFromEnvironmentVariable("APP_DATABASE_URL", "")); url != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
		return url, nil
	}

	env := func(key string) string { return sanitizeEnv(GetValueFromEnvironmentVariable(key, "")) }
	host, portStr, user, pass, dbName := env("POSTGRES_HOST"), env("POSTGRES_PORT"), env("POSTGRES_USER"), env("POSTGRES_PASSWORD"), env("POSTGRES_DB_NAME")

	ssl := env("POSTGRES_SSLMODE")
	if ssl == "" {
		ssl = c.SSLMode
	}
	if portStr == "" {
		portStr = "5432"
	}

	var missing []string
	for _, required := range [][2]string{{"POSTGRES_HOST", host}, {"POSTGRES_USER", user}, {"POSTGRES_DB_NAME", dbName}} {
		if required[1] == "" {
			missing = append(missing, required[0])
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", portStr, err)
	}

	logger.Info("Connecting to database", "host", host, "port", port, "user", user, "dbname", dbName, "sslmode", ssl)
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", host, port, user, pass, dbName, ssl), nil
}

// NewDatabase opens the configured database and pings it, retrying transient failures.
func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = NewDBConfig()
	}

	dialector, err := cfg.dialector(logger)
	if err != nil {
		logger.Error("Invalid database configuration", "error", err)
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite serializes writers; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	policy := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: cfg.ConnectAttempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
	})
	err = policy.Execute(context.Background(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return sqlDB.PingContext(pingCtx)
	})
	if err != nil {
		_ = sqlDB.Close()
		logger.Error("Database ping failed", "error", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established", "driver", cfg.Driver)
	return gdb, nil
}

// NewDatabaseOrNil returns nil when no database is configured or it cannot be reached.
func NewDatabaseOrNil(logger *log.Logger, cfg *DBConfig) *gorm.DB {
	if cfg == nil {
		cfg = NewDBConfig()
	}
	if !cfg.IsConfigured() {
		logger.Info("Database is not configured; proceeding without one")
		return nil
	}

	db, err := NewDatabase(logger, cfg)
	if err != nil {
		logger.Error("Database unavailable; proceeding without one", "error", err)
		return nil
	}
	return db
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...any) error {
	if db == nil {
		return fmt.Errorf("cannot migrate: %w", ErrDatabaseNotConfigured)
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed")
	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
		return
	}
	logger.Info("Database closed")
}
