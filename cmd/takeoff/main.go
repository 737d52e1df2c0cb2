package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/takeoff/internal/config"
	"github.com/philipparndt/takeoff/internal/logging"
	"github.com/philipparndt/takeoff/version"
)

var (
	configPath string
	logLevel   string
	logDev     bool
)

var rootCmd = &cobra.Command{
	Use:   "takeoff",
	Short: "Headless tools for the takeoff measurement canvas",
	Long: `takeoff runs the measurement canvas engine without a window.
It replays recorded session scripts, measures geometry given on the command
line and computes fit-to-screen viewports for plan sheets.`,
	Version: version.GetVersion(),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to takeoff.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logDev, "log-dev", false, "use the development log encoder")
}

// loadConfig reads --config over the defaults and applies the log flags
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return config.Config{}, err
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logDev {
		cfg.Log.Development = true
	}
	return cfg, cfg.Validate()
}

// setup loads the configuration and builds the engine logger, exiting on failure
func setup() (config.Config, *zap.Logger) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
