package main

import (
	"context"
	"fmt"
	"time"

	"github.com/akeren/clawsec-waitlist/config"
	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/internal/models"
	"github.com/akeren/clawsec-waitlist/pkg/migrations"
	"github.com/akeren/clawsec-waitlist/pkg/utils"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const migrateTimeout = 5 * time.Minute

func newMigrateCommand(newLogger loggerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the configured database",
		Long: `Applies every pending migration under MIGRATIONS_DIR (default "migrations").

SQLite databases (DB_DRIVER=sqlite) are migrated from the model definitions instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd)
			return withDatabase(logger, func(db *gorm.DB, cfg *config.DBConfig) error {
				if cfg.Driver == config.DriverSQLite {
					return config.AutoMigrate(logger, db, models.ModelRegistry...)
				}

				sqlDB, err := db.DB()
				if err != nil {
					return fmt.Errorf("get sql db: %w", err)
				}

				ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
				defer cancel()

				if err := migrations.Up(ctx, sqlDB, migrationConfig(logger)); err != nil {
					return err
				}
				logger.Info("Database migrations completed")
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd)
			return withDatabase(logger, func(db *gorm.DB, cfg *config.DBConfig) error {
				if cfg.Driver == config.DriverSQLite {
					return fmt.Errorf("sqlite databases are not versioned; they are migrated from models")
				}

				sqlDB, err := db.DB()
				if err != nil {
					return fmt.Errorf("get sql db: %w", err)
				}

				version, dirty, err := migrations.Version(cmd.Context(), sqlDB, migrationConfig(logger))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"version": version, "dirty": dirty})
			})
		},
	})

	return cmd
}

func migrationConfig(logger *log.Logger) migrations.Config {
	return migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", migrations.DefaultDir),
		Logger: logger,
	}
}

func withDatabase(logger *log.Logger, fn func(*gorm.DB, *config.DBConfig) error) error {
	loadEnv(logger)

	cfg := config.NewDBConfig()
	if !cfg.IsConfigured() {
		return config.ErrDatabaseNotConfigured
	}

	db, err := config.NewDatabase(logger, cfg)
	if err != nil {
		return err
	}
	defer config.CloseDatabase(db, logger)

	return fn(db, cfg)
}
