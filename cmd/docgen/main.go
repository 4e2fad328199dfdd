// Command docgen generates CLI reference documentation from the reviews
// command definitions. Output is written to docs/cli-reference.md.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	docs "github.com/urfave/cli-docs/v3"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/reviews/internal/commands"
)

func main() {
	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "reviews",
		Usage:     "Browse a paged review feed in the terminal",
		UsageText: "reviews [global options] command [command options]",
		Description: `reviews pages through a review API (or a local fixture file), loads avatars
and photos into a bounded cache, and lays the feed out for the terminal.

Run 'reviews' with no arguments to open the interactive feed.
Run 'reviews serve' to expose the bundled fixture as an HTTP API.`,
		Flags: flags.Global(),
	}

	root = commands.NewTuiCmd(flags).Register(root)
	root = commands.NewDumpCmd(flags).Register(root)
	root = commands.NewServeCmd(flags).Register(root)
	root = commands.NewConfigValidateCmd(flags).Register(root)

	md, err := docs.ToMarkdown(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating docs: %v\n", err)
		os.Exit(1)
	}

	outPath := "docs/cli-reference.md"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating %s: %v\n", filepath.Dir(outPath), err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outPath)
}
