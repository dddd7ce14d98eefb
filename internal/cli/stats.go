package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/herald/internal/platform"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	To []string
}

// NewStatsCommand creates the engagement metrics command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats <path>",
		Short: "Show engagement metrics for a published item",
		Long: `Fetch view, like and comment counts for a published item. Results are
cached in the registry for an hour; within that window the cached
numbers are served without touching the platform.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.To, "to", nil, "platforms to query (default: all loaded)")

	return cmd
}

type statsRow struct {
	Platform string         `json:"platform"`
	Stats    platform.Stats `json:"stats,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func runStats(opts *StatsOptions, path string, cmd *cobra.Command) error {
	app, err := newApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	var rows []statsRow
	failed := 0
	for _, name := range app.targetPlatforms(opts.To) {
		st, err := app.orch.Stats(cmd.Context(), path, name)
		if err != nil {
			rows = append(rows, statsRow{Platform: name, Error: err.Error()})
			failed++
			continue
		}
		rows = append(rows, statsRow{Platform: name, Stats: st})
	}

	if app.out.Format == "json" {
		if err := app.out.JSON(struct {
			Command string     `json:"command"`
			Path    string     `json:"path"`
			Rows    []statsRow `json:"platforms"`
		}{"stats", path, rows}); err != nil {
			return err
		}
	} else {
		for _, row := range rows {
			if row.Error != "" {
				app.out.Textf("%-10s %s", row.Platform, row.Error)
				continue
			}
			app.out.Textf("%-10s views=%d likes=%d comments=%d (as of %s)",
				row.Platform, row.Stats.Views, row.Stats.Likes, row.Stats.Comments,
				row.Stats.FetchedAt.Format("2006-01-02 15:04"))
		}
	}

	if failed == len(rows) {
		return NewExitError(ExitFailure, "no platform returned stats")
	}
	if failed > 0 {
		return NewExitError(ExitPartial, "some platforms returned no stats")
	}
	return nil
}
