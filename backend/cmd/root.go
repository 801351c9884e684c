// Package cmd holds the command line entry points of the reservation service.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/promociones-residenciales/reservas/backend/config"
	"github.com/promociones-residenciales/reservas/backend/document"
	"github.com/promociones-residenciales/reservas/backend/pkg/logger"
	"github.com/promociones-residenciales/reservas/backend/service"
)

var (
	// Global flags
	configPath string
	seedPath   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "reservas",
	Short: "Reservation contracts, signatures and audit trail",
	Long: `reservas generates the reservation contract of a promotion unit,
collects the buyer's signature, stores the signed PDF and keeps an audit
trail of every signature event.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnvFiles(".env")

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger.Init(&logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cmd.ErrOrStderr(),
		})
		slog.Debug("configuration loaded", "path", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", "", "YAML fixture loaded into the store before running")

	rootCmd.AddCommand(serveCmd, renderCmd, seedCmd, migrateCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore opens the configured store and applies --seed when given.
func openStore(ctx context.Context) (service.Store, error) {
	store, err := service.OpenStore(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if seedPath != "" {
		if _, err := seedFile(ctx, store, seedPath); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func newRenderer() *document.Renderer {
	return document.NewRenderer(document.Options{Compress: cfg.Contract.CompressPDF()})
}
