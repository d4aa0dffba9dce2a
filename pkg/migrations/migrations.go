// Package migrations applies the SQL files under migrations/ with golang-migrate.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	DefaultDir   = "migrations"
	DefaultTable = "schema_migrations"
)

type migrator interface {
	Up() error
	Version() (version uint, dirty bool, err error)
	Close() (sourceErr error, databaseErr error)
}

var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
}

var migratorFactory = func(sourceURL string, driver database.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	Dir             string
	MigrationsTable string
	Logger          Logger
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = DefaultDir
	}
	if strings.TrimSpace(cfg.MigrationsTable) == "" {
		cfg.MigrationsTable = DefaultTable
	}
}

func (cfg *Config) info(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Info(msg, args...)
	}
}

func (cfg *Config) warn(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Warn(msg, args...)
	}
}

// sourceURL renders dir as an escaped file:// URL.
func sourceURL(dir string) (string, string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", "", fmt.Errorf("migrations: resolve dir: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), abs, nil
}

// withMigrator opens a migrator, runs op on a separate goroutine and closes the migrator when
// op returns or ctx is done. migrate has no context support, so closing is the only way to
// interrupt it.
func withMigrator(ctx context.Context, db *sql.DB, cfg Config, op func(migrator) error) error {
	if db == nil {
		return errors.New("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	src, _, err := sourceURL(cfg.Dir)
	if err != nil {
		return err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := migratorFactory(src, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var once sync.Once
	closeMigrator := func() {
		once.Do(func() {
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				cfg.warn("Migrations source close error", "error", srcErr)
			}
			if dbErr != nil {
				cfg.warn("Migrations db close error", "error", dbErr)
			}
		})
	}
	defer closeMigrator()

	done := make(chan error, 1)
	go func() { done <- op(m) }()

	select {
	case <-ctx.Done():
		closeMigrator()
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Up applies every pending migration. Nothing to apply is not an error.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	cfg.applyDefaults()
	_, abs, err := sourceURL(cfg.Dir)
	if err != nil {
		return err
	}

	return withMigrator(ctx, db, cfg, func(m migrator) error {
		cfg.info("Running SQL migrations", "dir", abs, "table", cfg.MigrationsTable)

		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			cfg.info("No migrations to apply")
			return nil
		case err != nil:
			return fmt.Errorf("migrations: up: %w", err)
		}

		cfg.info("Migrations applied successfully")
		return nil
	})
}

// Version reports the applied version. A database with no migrations reports 0.
func Version(ctx context.Context, db *sql.DB, cfg Config) (uint, bool, error) {
	cfg.applyDefaults()

	var (
		version uint
		dirty   bool
	)
	err := withMigrator(ctx, db, cfg, func(m migrator) error {
		v, d, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrations: version: %w", err)
		}
		version, dirty = v, d
		return nil
	})
	return version, dirty, err
}
