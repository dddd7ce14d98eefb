package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/herald/internal/audit"
	"github.com/roach88/herald/internal/content"
	"github.com/roach88/herald/internal/orchestrator"
)

// PublishOptions holds flags for the publish command.
type PublishOptions struct {
	*RootOptions
	To             []string
	IncludeChanged bool
}

// NewPublishCommand creates the single-item publish command.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PublishOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "publish <path>",
		Short: "Publish one content item",
		Long: `Publish a single content item to one or more platforms. Pairs the
registry already records as published (and unchanged) are skipped;
changed items are updated in place where the platform supports it.

Example:
  herald publish posts/2025/hello.md --to webhook`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.To, "to", nil, "target platforms (default: all loaded)")
	cmd.Flags().BoolVar(&opts.IncludeChanged, "include-changed", true, "update items whose content changed")

	return cmd
}

func runPublish(opts *PublishOptions, path string, cmd *cobra.Command) error {
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
		switch entry.Status {
		case audit.StatusPublished:
			skipped = append(skipped, orchestrator.Result{
				Path:     entry.Path,
				Platform: name,
				State:    orchestrator.StateSkipped,
				Error:    "already published, unchanged",
			})
		case audit.StatusChanged:
			if opts.IncludeChanged {
				candidates = append(candidates, entry)
			} else {
				skipped = append(skipped, orchestrator.Result{
					Path:     entry.Path,
					Platform: name,
					State:    orchestrator.StateSkipped,
					Error:    "changed, re-run with --include-changed",
				})
			}
		case audit.StatusArchived:
			skipped = append(skipped, orchestrator.Result{
				Path:     entry.Path,
				Platform: name,
				State:    orchestrator.StateSkipped,
				Error:    "archived",
			})
		default:
			// missing and failed pairs are (re)attempted
			candidates = append(candidates, entry)
		}
	}

	run := app.orch.Publish(cmd.Context(), "publish", candidates)
	run.Results = append(run.Results, skipped...)
	run.Summary.Skipped += len(skipped)
	return emitRun(app.out, run)
}

// findItem matches an exact item path, tolerating a leading "./" or a
// path given relative to the working directory instead of the root. A
// suffix match is only accepted on a path segment boundary.
func findItem(items []content.Item, path string) (content.Item, bool) {
	path = strings.TrimPrefix(path, "./")
	for _, it := range items {
		if it.Path == path {
			return it, true
		}
	}
	for _, it := range items {
		if len(path) > len(it.Path) &&
			strings.HasSuffix(path, it.Path) &&
			path[len(path)-len(it.Path)-1] == '/' {
			return it, true
		}
	}
	return content.Item{}, false
}
