package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rl1809/storefront/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront shipping, cart, discount and checkout service",
	Long: `storefront serves the shipping rate resolver, carts, discount codes and
checkout over HTTP (gin) and the rate resolver over gRPC.

Storage is MySQL with Redis for discount redemption and checkout
idempotency, or an in-process memory store for development.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ./config.yaml or ./deploy/config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(cfg.Log.Level), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
