package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"BrentPulse/pkg/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "brentpulse",
	Short: "Brent crude price analytics",
	Long: `BrentPulse serves Brent crude price analytics: derived price series,
bull/bear phase segmentation, seasonality and model-backed forecasts.

Examples:
  brentpulse serve --config configs/config.yaml
  brentpulse phases --threshold 0.25
  brentpulse forecast --days 30`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "config file path")
}

// loadConfig reads the config file with environment overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
