package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/reviews/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	Source     string
	DiagPort   int

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Registry holds the collectors served on /metrics
	Registry *prometheus.Registry
}

// Global returns the root command flags bound to f.
func (f *Flags) Global() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error, fatal, panic)",
			Sources:     cli.EnvVars("REVIEWS_LOG_LEVEL"),
			Value:       "info",
			Destination: &f.LogLevel,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "path to log file (the interactive feed defaults to the state dir)",
			Sources:     cli.EnvVars("REVIEWS_LOG_FILE"),
			Destination: &f.LogFile,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to config file",
			Sources:     cli.EnvVars("REVIEWS_CONFIG"),
			Value:       DefaultConfigPath(),
			Destination: &f.ConfigPath,
		},
		&cli.StringFlag{
			Name:        "source",
			Usage:       "override source.kind (http, file)",
			Sources:     cli.EnvVars("REVIEWS_SOURCE"),
			Destination: &f.Source,
		},
		&cli.IntFlag{
			Name:        "diag-port",
			Usage:       "serve pprof and /metrics on 127.0.0.1 at this port (e.g., 6060)",
			Sources:     cli.EnvVars("REVIEWS_DIAG_PORT"),
			Destination: &f.DiagPort,
		},
	}
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	return config.DefaultPath()
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/reviews/reviews.log
// On Linux: $XDG_STATE_HOME/reviews/reviews.log (defaults to ~/.local/state/reviews/reviews.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "reviews", "reviews.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "reviews", "reviews.log")
	}

	return filepath.Join(home, ".local", "state", "reviews", "reviews.log")
}
