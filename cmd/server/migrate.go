package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/config"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "PostgreSQL schema migrations",
	Long:  `Apply or roll back the PostgreSQL schema. Only used with storage.driver=postgres.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateDown,
}

var migrateSteps int

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requirePostgres(cfg); err != nil {
		return err
	}

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}
	logger.Info("Database migrations completed")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requirePostgres(cfg); err != nil {
		return err
	}

	if err := database.MigrateDown(cfg.Database, migrateSteps); err != nil {
		return err
	}
	logger.Info("Database migrations rolled back", slog.Int("steps", migrateSteps))
	return nil
}

func requirePostgres(cfg *config.Config) error {
	if cfg.Storage.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations apply to the postgres driver, configured driver is %q", cfg.Storage.Driver)
	}
	return nil
}
