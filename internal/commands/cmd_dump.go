package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/reviews/internal/core/feed"
	"github.com/colonyops/reviews/internal/core/layout"
	"github.com/colonyops/reviews/internal/core/logging"
	"github.com/colonyops/reviews/internal/core/styles"
)

type DumpCmd struct {
	flags  *Flags
	pages  int
	width  int
	format string
	expand bool
}

// NewDumpCmd creates a new dump command
func NewDumpCmd(flags *Flags) *DumpCmd {
	return &DumpCmd{flags: flags}
}

// Register adds the dump command to the application
func (cmd *DumpCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "dump",
		Usage:     "Load the feed headlessly and print its items",
		UsageText: "reviews dump [options]",
		Description: `Pages through the configured source the same way the interactive feed does
and prints every item together with its computed row height.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "pages",
				Usage:       "number of pages to load (0 loads every page)",
				Value:       0,
				Destination: &cmd.pages,
			},
			&cli.IntFlag{
				Name:        "width",
				Usage:       "row width used to compute layout",
				Value:       80,
				Destination: &cmd.width,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json, markdown)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "expand",
				Usage:       "show full review text instead of the clamped preview",
				Destination: &cmd.expand,
			},
		},
		Action: cmd.run,
	})
	return app
}

// dumpItem is the JSON shape of a feed item.
type dumpItem struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Height   int    `json:"height"`
	Name     string `json:"name,omitempty"`
	Rating   int    `json:"rating,omitempty"`
	Text     string `json:"text,omitempty"`
	Created  string `json:"created,omitempty"`
	Photos   int    `json:"photos,omitempty"`
	Lines    int    `json:"lines,omitempty"`
	ShowMore bool   `json:"show_more,omitempty"`
	Count    int    `json:"count,omitempty"`
}

func (cmd *DumpCmd) run(ctx context.Context, c *cli.Command) error {
	switch cmd.format {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q (want text, json or markdown)", cmd.format)
	}
	if cmd.width <= 0 {
		return errors.New("width must be positive")
	}

	state, err := cmd.load(ctx)
	if err != nil {
		return err
	}

	engine := layout.Default()
	out := c.Root().Writer

	switch cmd.format {
	case "json":
		return cmd.outputJSON(out, engine, state)
	case "markdown":
		return cmd.outputMarkdown(out, state)
	default:
		return cmd.outputText(out, engine, state)
	}
}

// load drives a controller to completion: one page at a time, settling the
// page and its asset loads before asking for the next.
func (cmd *DumpCmd) load(ctx context.Context) (feed.State, error) {
	cfg := cmd.flags.Config

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return feed.State{}, fmt.Errorf("create source: %w", err)
	}
	loader, err := newLoader(cfg, fetcher)
	if err != nil {
		return feed.State{}, err
	}

	logger := logging.Component("dump")
	ctrl := feed.NewController(fetcher, loader, feed.Options{
		PageLimit: cfg.Feed.PageLimit,
		MaxLines:  cfg.Feed.MaxLines,
		Logger:    &logger,
	})
	runner := feed.NewRunner(ctx, ctrl.Apply)

	for pages := 0; cmd.pages <= 0 || pages < cmd.pages; pages++ {
		tasks := ctrl.RequestNextPage()
		if len(tasks) == 0 {
			break
		}
		runner.Exec(tasks...)
		if err := runner.Settle(); err != nil {
			return feed.State{}, err
		}
		if ctrl.State().HasError {
			return feed.State{}, fmt.Errorf("page at offset %d failed to load", ctrl.State().Offset)
		}
	}

	if cmd.expand {
		for _, it := range ctrl.State().Items {
			ctrl.Expand(it.ID())
		}
	}

	logger.Debug().Int("items", len(ctrl.State().Items)).Msg("feed loaded")
	return ctrl.State(), nil
}

func (cmd *DumpCmd) items(engine layout.Engine, state feed.State) []dumpItem {
	items := make([]dumpItem, 0, len(state.Items))
	for _, it := range state.Items {
		switch it := it.(type) {
		case feed.ReviewItem:
			l := it.Layout(engine, cmd.width)
			items = append(items, dumpItem{
				ID:       it.ID(),
				Kind:     "review",
				Height:   l.Height,
				Name:     it.Name.Text,
				Rating:   it.Rating,
				Text:     it.Text.Text,
				Created:  it.Created.Text,
				Photos:   len(it.Photos),
				Lines:    l.TextLines,
				ShowMore: l.HasShowMore,
			})
		case feed.CountItem:
			items = append(items, dumpItem{
				ID:     it.ID(),
				Kind:   "count",
				Height: it.Height(engine, cmd.width),
				Text:   it.Text.Text,
				Count:  it.Count,
			})
		}
	}
	return items
}

func (cmd *DumpCmd) outputJSON(w io.Writer, engine layout.Engine, state feed.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cmd.items(engine, state))
}

func (cmd *DumpCmd) outputText(w io.Writer, engine layout.Engine, state feed.State) error {
	divider := styles.DividerStyle.Render(strings.Repeat("─", cmd.width))

	for _, it := range state.Items {
		switch it := it.(type) {
		case feed.ReviewItem:
			l := it.Layout(engine, cmd.width)
			fmt.Fprintf(w, "%s %s  %s\n",
				styles.NameStyle.Render(it.Name.Text),
				styles.StarStyle.Render(styles.Stars(it.Rating)),
				styles.CaptionStyle.Render(fmt.Sprintf("h=%d", l.Height)))
			if n := len(it.Photos); n > 0 {
				fmt.Fprintf(w, "%s\n", styles.CaptionStyle.Render(fmt.Sprintf("%s × %d", styles.IconPhoto, n)))
			}
			lines := layout.Wrap(it.Text.Text, l.Text.W)
			for _, line := range lines[:min(l.TextLines, len(lines))] {
				fmt.Fprintf(w, "%s\n", styles.BodyStyle.Render(line))
			}
			if l.HasShowMore {
				fmt.Fprintf(w, "%s\n", styles.ShowMoreStyle.Render(engine.Metrics().ShowMoreLabel))
			}
			fmt.Fprintf(w, "%s\n%s\n", styles.CaptionStyle.Render(it.Created.Text), divider)
		case feed.CountItem:
			fmt.Fprintf(w, "%s  %s\n",
				styles.CountStyle.Render(it.Text.Text),
				styles.CaptionStyle.Render(fmt.Sprintf("h=%d", it.Height(engine, cmd.width))))
		}
	}
	return nil
}

func (cmd *DumpCmd) outputMarkdown(w io.Writer, state feed.State) error {
	var sb strings.Builder
	for _, it := range state.Items {
		switch it := it.(type) {
		case feed.ReviewItem:
			fmt.Fprintf(&sb, "## %s\n\n%s\n\n", it.Name.Text, styles.Stars(it.Rating))
			if n := len(it.Photos); n > 0 {
				fmt.Fprintf(&sb, "*%s × %d*\n\n", styles.IconPhoto, n)
			}
			fmt.Fprintf(&sb, "%s\n\n*%s*\n\n---\n\n", markdownText(it, cmd.width), it.Created.Text)
		case feed.CountItem:
			fmt.Fprintf(&sb, "**%s**\n", it.Text.Text)
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(cmd.width),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	rendered, err := r.Render(sb.String())
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// markdownText returns the review text cut to its line clamp at width.
func markdownText(it feed.ReviewItem, width int) string {
	text := it.Text.Text
	if it.MaxLines <= 0 {
		return text
	}
	lines := layout.Wrap(text, width)
	if len(lines) <= it.MaxLines {
		return text
	}
	return strings.Join(lines[:it.MaxLines], " ") + "…"
}
