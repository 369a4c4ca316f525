// Package cmd implements the keel CLI commands.
package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/go-drift/keel/internal/devserver"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "keel",
	Short: "Keel chunk deployment tooling",
	Long: `Keel packs chunk-split application builds into content-addressed
deployments and serves them the way production hosting does.

Use "keel <command> --help" for more information about a command.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "keel.yaml", "config file")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads the config file, falling back to defaults when the
// default file is absent.
func loadConfig() (*devserver.Config, error) {
	_ = godotenv.Load()

	cfg, err := devserver.LoadConfig(cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
			return devserver.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// setupLogging installs the process-wide slog handler.
func setupLogging(cfg *devserver.Config) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case isDebug || cfg.Logging.Level == "debug":
		level = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		level = slog.LevelWarn
	case cfg.Logging.Level == "error":
		level = slog.LevelError
	}

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(log)
	return log
}
