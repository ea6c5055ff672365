// Package cli holds the project-timer command tree.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"hobbytrack/project-timer/internal/app"
	"hobbytrack/project-timer/internal/config"
	"hobbytrack/project-timer/internal/logger"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "project-timer",
	Short: "Session-aware timer for hobby projects",
	Long: `project-timer tracks the time spent on hobby projects.

Each run of the stopwatch is recorded as a work session and added to the
project's total. Unsaved time is kept locally and recovered the next time
the project is opened.

Examples:
  project-timer project create "Winter scarf"   # Create a project
  project-timer track <project-id>              # Open the timer dashboard
  project-timer sessions <project-id>           # Show the session log
  project-timer reconcile --pending             # Recover unsaved time
  project-timer serve                           # Run the HTTP API`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", eris.ToString(err, true))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/local.yaml", "Path to configuration file")
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, eris.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

// newLogger builds the logger for a command. When toFile is set, output goes to the
// configured log file, or to project-timer.log next to the database, so it does not
// draw over the terminal dashboard.
func newLogger(cfg *config.Config, toFile bool) (*logger.Logger, error) {
	var paths []string
	switch {
	case cfg.Log.File != "":
		paths = append(paths, cfg.Log.File)
	case toFile:
		paths = append(paths, filepath.Join(filepath.Dir(cfg.StoragePath), "project-timer.log"))
	}

	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, eris.Wrap(err, "failed to create log directory")
		}
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, paths...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize logger")
	}
	return log, nil
}

// openApp loads configuration and wires the application. The returned cleanup
// closes the app and flushes the logger.
func openApp(toFile bool) (*app.App, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := newLogger(cfg, toFile)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, log.Logger)
	if err != nil {
		log.Sync()
		return nil, nil, eris.Wrap(err, "failed to initialize application")
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			log.Error("Failed to close application", zap.Error(err))
		}
		log.Sync()
	}
	return a, cleanup, nil
}
