package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thedittmer/podcast-skill/internal/config"
	"github.com/thedittmer/podcast-skill/internal/feed"
	"github.com/thedittmer/podcast-skill/internal/matcher"
	"github.com/thedittmer/podcast-skill/internal/models"
	"github.com/thedittmer/podcast-skill/internal/storage"
	"github.com/thedittmer/podcast-skill/internal/ui"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <phrase>",
		Short: "Show which configured podcast a phrase selects, without playing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			phrase := strings.Join(args, " ")
			slots := cfg.Slots()
			scores := matcher.Scores(phrase, slots)

			rows := make([][]string, 0, len(slots))
			for i, slot := range slots {
				if slot.Empty() {
					continue
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					slot.Name,
					strconv.FormatFloat(scores[i], 'f', 3, 64),
					matcher.Tier(scores[i]).String(),
				})
			}

			out := cmd.OutOrStdout()
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"#", "Podcast", "Score", "Tier"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
			}

			m := matcher.Select(phrase, slots)
			if !m.Matched() {
				fmt.Fprintln(out, ui.WarningStyle.Render(fmt.Sprintf("No match for %q", phrase)))
				return nil
			}
			fmt.Fprintf(out, "%s %s %s\n",
				ui.SuccessStyle.Render("Match:"),
				ui.SourceStyle.Render(m.Name),
				ui.Confidence(m.Confidence),
			)
			fmt.Fprintln(out, ui.LinkStyle.Render(m.URL))
			return nil
		},
	}
}

func newLatestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "latest [podcast name]",
		Short: "Fetch the newest episode of every configured podcast, or of one named podcast",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			loader, err := ctx.loader()
			if err != nil {
				return err
			}

			slots := cfg.Slots()
			if len(args) > 0 {
				utterance := strings.Join(args, " ")
				slot, _, ok := matcher.Find(utterance, slots)
				if !ok {
					return fmt.Errorf("no configured podcast named in %q", utterance)
				}
				slots = []models.FeedSlot{slot}
			}

			results := loader.LatestTitles(cmd.Context(), slots)
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.WarningStyle.Render("No podcasts configured."))
				return nil
			}
			report := buildReport(slots, results, time.Now())

			fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))

			store, err := storage.NewStorage(cfg.DataDir)
			if err != nil {
				return err
			}
			return store.SaveReport(report)
		},
	}
}

func newFeedsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "feeds",
		Short: "List the configured podcast slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, models.MaxSlots)
			for i, slot := range cfg.Slots() {
				state := "configured"
				if slot.Empty() {
					state = "empty"
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), slot.Name, slot.URL, state})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Name", "Feed URL", "State"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the latest-episodes report to Google Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := storage.NewStorage(cfg.DataDir)
			if err != nil {
				return err
			}

			report, ok, err := store.LoadReport()
			if err != nil {
				return err
			}
			if !ok || refresh {
				loader, err := ctx.loader()
				if err != nil {
					return err
				}
				slots := cfg.Slots()
				report = buildReport(slots, loader.LatestTitles(cmd.Context(), slots), time.Now())
				if err := store.SaveReport(report); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.DimStyle.Render("Exporting to Google Sheets..."))
			res, err := store.ExportToSheets(cmd.Context(), report, storage.SheetsOptions{
				CredentialsFile: cfg.Sheets.CredentialsFile,
				SpreadsheetID:   cfg.Sheets.SpreadsheetID,
				FolderID:        cfg.Sheets.FolderID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d podcasts\n", ui.SuccessStyle.Render("Exported"), res.Rows)
			fmt.Fprintln(cmd.OutOrStdout(), ui.LinkStyle.Render(res.URL))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the feeds again instead of exporting the last saved report")
	return cmd
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ctx.configPath()
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.SuccessStyle.Render("Wrote"), path)
			return nil
		},
	}
	configCmd.AddCommand(initCmd)
	return configCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), formatVersion())
			return nil
		},
	}
}

// buildReport turns loader results back into rows keyed by the slots they
// came from.
func buildReport(slots []models.FeedSlot, results []feed.SlotTitle, now time.Time) models.LatestReport {
	report := models.LatestReport{GeneratedAt: now, Rows: make([]models.ReportRow, 0, len(results))}
	for _, r := range results {
		row := models.ReportRow{Podcast: r.Name, Episode: r.Episode}
		if r.Slot >= 0 && r.Slot < len(slots) {
			row.FeedURL = slots[r.Slot].URL
		}
		if r.Err != nil {
			row.Error = errorKind(r.Err)
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, feed.ErrBadFeed):
		return "bad feed"
	case errors.Is(err, feed.ErrUnreachable):
		return "unreachable"
	default:
		return err.Error()
	}
}

func renderReport(report models.LatestReport) string {
	rows := make([][]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		status := "ok"
		if row.Error != "" {
			status = row.Error
		}
		rows = append(rows, []string{row.Podcast, row.Episode, status})
	}
	return renderTable([]string{"Podcast", "Latest Episode", "Status"}, rows, nil)
}
