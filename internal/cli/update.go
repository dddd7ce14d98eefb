package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/herald/internal/audit"
	"github.com/roach88/herald/internal/orchestrator"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	To []string
}

// NewUpdateCommand creates the changed-content refresh command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <path>",
		Short: "Push changed content to platforms it was published on",
		Long: `Re-send a content item to every platform where it is already published
but the content has changed since. Pairs that are unchanged, missing or
archived are skipped; use publish for first-time publishing.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.To, "to", nil, "target platforms (default: all loaded)")

	return cmd
}

func runUpdate(opts *UpdateOptions, path string, cmd *cobra.Command) error {
	app, err := newApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	items, err := app.discover()
	if err != nil {
		return err
	}
	item, ok := findItem(items, path)
	if !ok {
		return NewExitError(ExitFailure, fmt.Sprintf("no content item found for %s", path))
	}

	engine := app.auditEngine(false)
	var candidates []audit.Entry
	var skipped []orchestrator.Result
	for _, name := range app.targetPlatforms(opts.To) {
		entry := engine.Classify(item, name)
		if entry.Status == audit.StatusChanged {
			candidates = append(candidates, entry)
			continue
		}
		skipped = append(skipped, orchestrator.Result{
			Path:     entry.Path,
			Platform: name,
			State:    orchestrator.StateSkipped,
			Error:    string(entry.Status),
		})
	}

	run := app.orch.Publish(cmd.Context(), "update", candidates)
	run.Results = append(run.Results, skipped...)
	run.Summary.Skipped += len(skipped)
	return emitRun(app.out, run)
}
