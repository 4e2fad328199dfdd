package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/reviews/internal/core/logging"
	"github.com/colonyops/reviews/internal/fixture"
	"github.com/colonyops/reviews/internal/source/filesource"
)

type ServeCmd struct {
	flags   *Flags
	addr    string
	file    string
	assets  string
	latency time.Duration
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve a review fixture as a paged HTTP API",
		UsageText: "reviews serve [options]",
		Description: `Serves GET /reviews?offset=N&limit=M and GET /assets/* from a fixture file.
Point a config with source.kind: http at it to exercise the HTTP source.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       ":8085",
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "fixture",
				Usage:       "review payload file (defaults to source.file from the config)",
				Destination: &cmd.file,
			},
			&cli.StringFlag{
				Name:        "assets",
				Usage:       "directory assets are served from (defaults to the fixture's directory)",
				Destination: &cmd.assets,
			},
			&cli.DurationFlag{
				Name:        "latency",
				Usage:       "upper bound of the random delay added to each request",
				Destination: &cmd.latency,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	file := cmd.file
	if file == "" {
		file = cmd.flags.Config.Source.File
	}
	assetsDir := cmd.assets
	if assetsDir == "" && cmd.file == "" {
		assetsDir = cmd.flags.Config.Source.AssetsDir
	}
	if cmd.latency < 0 {
		return errors.New("latency must not be negative")
	}

	src, err := filesource.New(filesource.Config{
		File:       file,
		AssetsDir:  assetsDir,
		LatencyMax: cmd.latency,
	}, logging.Component("filesource"))
	if err != nil {
		return fmt.Errorf("load fixture: %w", err)
	}

	srv := fixture.New(fixture.Options{
		Source:   src,
		Registry: cmd.flags.Registry,
		Logger:   logging.Component("fixture"),
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cmd.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
