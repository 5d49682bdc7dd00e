package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thedittmer/podcast-skill/internal/bus"
	"github.com/thedittmer/podcast-skill/internal/server"
	"github.com/thedittmer/podcast-skill/internal/ui"
)

// newControlCommands builds the commands that drive a running `serve` host.
func newControlCommands(ctx *commandContext) []*cobra.Command {
	play := &cobra.Command{
		Use:   "play <phrase>",
		Short: "Play the podcast a spoken phrase asks for",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			phrase := strings.Join(args, " ")
			resp, err := client.Play(cmd.Context(), phrase)
			printSpoken(cmd.OutOrStdout(), resp.Spoken)
			if server.IsNoMatch(err) {
				return fmt.Errorf("no configured podcast matches %q", phrase)
			}
			if err != nil {
				return err
			}
			if resp.Match != nil {
				fmt.Fprintln(cmd.OutOrStdout(), ui.MatchLine(*resp.Match))
			}
			return nil
		},
	}

	commands := []*cobra.Command{play}
	for _, ev := range []struct {
		event string
		short string
	}{
		{bus.Next, "Announce the next newer episode"},
		{bus.Previous, "Announce the next older episode"},
		{bus.Pause, "Pause playback"},
		{bus.Resume, "Resume playback"},
	} {
		commands = append(commands, newEventCommand(ctx, ev.event, ev.short))
	}

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Stop(cmd.Context())
			printSpoken(cmd.OutOrStdout(), resp.Spoken)
			if err != nil {
				return err
			}
			if resp.Stopped != nil && *resp.Stopped {
				fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render("Stopped"))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), ui.DimStyle.Render("Nothing playing"))
			}
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the playback session of the running host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if resp.Status == nil {
				return fmt.Errorf("host returned no status")
			}
			st := resp.Status
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "State:    %s\n", ui.State(st.State))
			if st.SessionID == "" {
				return nil
			}
			fmt.Fprintf(out, "Podcast:  %s\n", ui.SourceStyle.Render(st.FeedName))
			fmt.Fprintf(out, "Feed:     %s\n", ui.LinkStyle.Render(st.FeedURL))
			fmt.Fprintf(out, "Episode:  %s %s\n", st.Title, ui.DimStyle.Render(fmt.Sprintf("(%d of %d)", st.Index+1, st.Episodes)))
			fmt.Fprintf(out, "Session:  %s\n", ui.DimStyle.Render(st.SessionID))
			return nil
		},
	}

	return append(commands, stop, status)
}

func newEventCommand(ctx *commandContext, event, short string) *cobra.Command {
	return &cobra.Command{
		Use:   event,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Publish(cmd.Context(), event)
			printSpoken(cmd.OutOrStdout(), resp.Spoken)
			return err
		},
	}
}

func printSpoken(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, ui.Spoken(line))
	}
}
