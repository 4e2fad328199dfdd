package commands

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/reviews/internal/core/layout"
	"github.com/colonyops/reviews/internal/core/logging"
	"github.com/colonyops/reviews/internal/tui"
)

type TuiCmd struct {
	flags *Flags
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{flags: flags}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "tui",
		Usage:       "Browse reviews interactively",
		UsageText:   "reviews tui",
		Description: "Opens the review feed. This is also what runs when no command is given.",
		Action:      cmd.Run,
	})
	return app
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, _ *cli.Command) error {
	cfg := cmd.flags.Config

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}
	loader, err := newLoader(cfg, fetcher)
	if err != nil {
		return err
	}

	logger := logging.Component("tui")
	m := tui.New(
		tui.Deps{
			Fetcher: fetcher,
			Loader:  loader,
			Engine:  layout.Default(),
			Logger:  &logger,
		},
		tui.Options{
			Context:   ctx,
			PageLimit: cfg.Feed.PageLimit,
			MaxLines:  cfg.Feed.MaxLines,
		},
	)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
