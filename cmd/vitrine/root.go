package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitrine-studio/vitrine/internal/config"
)

var (
	configDir string
	verbose   bool
)

// version is set by the linker at build time.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "vitrine",
	Short: "vitrine turns an event order into a deployed single-page site",
	Long: `vitrine turns an event order into a deployed single-page site.

The pipeline runs eight stages: order intake, information architecture,
navigation, wireframes, storyboard, assets, coding, and publish. Each
stage records its artifacts, so partial runs can be inspected and
individual stages re-run.`,
	Version: version,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".",
		"directory holding vitrine.yml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose logging")
	rootCmd.AddCommand(runCmd, planCmd, statusCmd, exportCmd, serveCmd)
}

func loadConfig() (*config.ProjectConfig, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func newLogger(cfg *config.ProjectConfig) (*zap.Logger, error) {
	if cfg.Verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
