package cmd

import (
	"fmt"
	"os"

	"github.com/phototrack/phototrack/compress"
	"github.com/phototrack/phototrack/config"
	"github.com/phototrack/phototrack/ingest"
	"github.com/phototrack/phototrack/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "phototrack",
	Short: "Track progress photos with compression, cropping and measurements",
	Long: `phototrack stores dated progress photos in a local database,
compressing each image to a size budget and keeping optional body
measurements alongside.

Examples:
  phototrack upload front.jpg side.jpg --date 2026-08-31
  phototrack upload front.jpg --waist 82.5 --chest 101
  phototrack list
  phototrack compare 2026-08-31
  phototrack export backup.json
  phototrack import backup.json`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfig(configPath)
	}
	return config.Default(), nil
}

// openStore opens the configured database. Callers own the Close.
func openStore(cfg *config.Config) (store.Store, error) {
	st, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", cfg.DatabasePath, err)
	}
	return st, nil
}

// newOrchestrator wires the ingestion pipeline from config.
func newOrchestrator(cfg *config.Config, st store.Store) *ingest.Orchestrator {
	engine := compress.NewEngine(compress.Options{
		MaxSizeBytes: cfg.MaxImageSizeBytes(),
		MaxDimension: cfg.MaxDimension,
		QualityStart: cfg.QualityStart,
		QualityFloor: cfg.QualityFloor,
		QualityStep:  cfg.QualityStep,
	})
	return ingest.NewOrchestrator(st, engine, ingest.Hooks{})
}
