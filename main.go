package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/thedittmer/podcast-skill/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error:"), err)
		}
		os.Exit(1)
	}
}

func formatVersion() string {
	return fmt.Sprintf("podcast-skill %s (%s) %s", version, commit, date)
}
