package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/reviews/internal/commands"
	"github.com/colonyops/reviews/internal/core/config"
	"github.com/colonyops/reviews/internal/core/styles"
	"github.com/colonyops/reviews/internal/observability"
	"github.com/colonyops/reviews/internal/profiler"
	"github.com/colonyops/reviews/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		diag      *profiler.Server
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "reviews",
		Usage:     "Browse a paged review feed in the terminal",
		UsageText: "reviews [global options] command [command options]",
		Description: `reviews pages through a review API (or a local fixture file), loads avatars
and photos into a bounded cache, and lays the feed out for the terminal.

Run 'reviews' with no arguments to open the interactive feed.
Run 'reviews serve' to expose the bundled fixture as an HTTP API.`,
		Version: build(),
		Flags:   flags.Global(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// The feed owns the terminal, so it logs to a file unless told otherwise.
			interactive := c.Args().Len() == 0 || c.Args().First() == "tui"
			logFile := flags.LogFile
			if logFile == "" && interactive {
				logFile = commands.DefaultLogFile()
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile, !interactive)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.Source != "" {
				cfg.Source.Kind = config.SourceKind(flags.Source)
				if err := cfg.Validate(); err != nil {
					return ctx, fmt.Errorf("--source: %w", err)
				}
			}
			flags.Config = cfg

			palette, ok := styles.GetPalette(cfg.TUI.Theme)
			if !ok {
				return ctx, fmt.Errorf("tui.theme %q is unknown (available: %s)", cfg.TUI.Theme, strings.Join(styles.ThemeNames(), ", "))
			}
			styles.SetTheme(palette)

			flags.Registry = observability.InitRegistry()

			if flags.DiagPort > 0 {
				diag = profiler.New(flags.DiagPort, flags.Registry)
				if err := diag.Start(ctx); err != nil {
					return ctx, fmt.Errorf("start diagnostics server: %w", err)
				}
				log.Info().
					Str("url", fmt.Sprintf("http://%s/debug/pprof/", diag.Addr())).
					Msg("diagnostics endpoint available")
			}

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if diag != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := diag.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("failed to shutdown diagnostics server")
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags)

	app = tuiCmd.Register(app)
	app = commands.NewDumpCmd(flags).Register(app)
	app = commands.NewServeCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'reviews --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
