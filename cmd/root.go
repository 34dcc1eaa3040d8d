package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andes-hr/asistencia-cli/internal/config"
	"github.com/andes-hr/asistencia-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "asistencia-cli",
	Short: "Shift normalization and incidence detection for HR attendance exports",
	Long:  "Ingests the HR Excel exports (shift codification, active-worker roster, attendance detail), expands the roster to per-worker-per-day shifts, joins it against real clock-in/out markings, and writes a consolidated incident report workbook.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initStore opens the configured run-history backend. A nil store (driver
// "off") is a valid result; callers that require history must check.
func initStore(cmd *cobra.Command) (store.Store, error) {
	return store.Open(cmd.Context(), cfg.Store)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
