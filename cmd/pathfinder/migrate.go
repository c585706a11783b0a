package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/pathfinder/internal/db"
)

var migrateDatabaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		url, err := migrationURL()
		if err != nil {
			return err
		}
		if err := db.RunMigrations(url); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		url, err := migrationURL()
		if err != nil {
			return err
		}
		if err := db.RollbackMigrations(url); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Rolled back one migration")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		url, err := migrationURL()
		if err != nil {
			return err
		}
		version, dirty, err := db.MigrationVersion(url)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatVersion(version, dirty))
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func migrationURL() (string, error) {
	if migrateDatabaseURL != "" {
		return migrateDatabaseURL, nil
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("DATABASE_URL environment variable is required")
}

func formatVersion(version uint, dirty bool) string {
	if version == 0 {
		return "No migrations applied"
	}
	if dirty {
		return fmt.Sprintf("Version %d (dirty)", version)
	}
	return fmt.Sprintf("Version %d", version)
}

func migrateUp(databaseURL string, logger *zap.Logger) error {
	if err := db.RunMigrations(databaseURL); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}
