package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/studyapp/internal/app"
	"github.com/example/studyapp/internal/config"
	"github.com/example/studyapp/internal/logger"
)

var (
	flagConfig  string
	flagLogMode string
)

var rootCmd = &cobra.Command{
	Use:           "studyapp",
	Short:         "Language study progress tracker",
	Long:          "Track study sessions, daily statistics and the monthly calendar for English/Korean expression practice.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "TOML config file (overrides STUDYAPP_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&flagLogMode, "log-mode", "", "Log preset: dev or prod (overrides LOG_MODE)")
}

// openApp is the shared startup path: config, logger, database, services.
// Callers must Close the app and Sync the logger.
func openApp() (*app.App, error) {
	if flagConfig != "" {
		if err := os.Setenv("STUDYAPP_CONFIG", flagConfig); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagLogMode != "" {
		cfg.Log.Mode = flagLogMode
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a, err := app.Open(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Log.Warn("close failed", "error", err)
	}
	a.Log.Sync()
}
