package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the MySQL schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage != config.StorageMySQL {
			return fmt.Errorf("migrate needs storage %q, got %q", config.StorageMySQL, cfg.Storage)
		}
		db, err := openMySQL(cmd.Context(), cfg.MySQL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := storage.NewMySQLAdapter(db).Migrate(cmd.Context()); err != nil {
			return err
		}
		logger.Info("schema up to date")
		return nil
	},
}
