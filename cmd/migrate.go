package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"photopipe/internal/models"
	"photopipe/internal/storage"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply metadata schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			switch cfg.Metadata.Driver {
			case models.MetadataDriverSQLite:
				db, err := storage.NewSQLite(cmd.Context(), cfg.Metadata.SQLitePath)
				if err != nil {
					return fmt.Errorf("migrate sqlite: %w", err)
				}
				defer db.Close()
			default:
				if err := storage.MigratePostgres(cfg.Metadata.DatabaseURL); err != nil {
					return fmt.Errorf("migrate postgres: %w", err)
				}
			}
			log.Info("migrations complete", "driver", cfg.Metadata.Driver)
			return nil
		},
	}
}
