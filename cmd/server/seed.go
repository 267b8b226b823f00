package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load rate table, products and discounts from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage != config.StorageMySQL {
			return fmt.Errorf("seed writes to %q storage; memory storage seeds on serve", config.StorageMySQL)
		}
		path := seedFile
		if path == "" {
			path = cfg.Seed.File
		}
		if path == "" {
			return fmt.Errorf("no seed file: pass --file or set seed.file")
		}

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		return applySeed(cmd.Context(), a, path, logger)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed YAML file")
}

func applySeed(ctx context.Context, a *app, path string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	data, err := seed.Load(f)
	if err != nil {
		return err
	}
	return seed.Loader{
		Rates:     a.rateAdmin,
		Catalog:   a.catalog,
		Discounts: a.discounts,
		Logger:    logger,
	}.Apply(ctx, data)
}
