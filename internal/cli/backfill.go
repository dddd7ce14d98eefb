package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/herald/internal/audit"
	"github.com/roach88/herald/internal/filter"
	"github.com/roach88/herald/internal/orchestrator"
	"github.com/roach88/herald/internal/platform"
)

// BackfillOptions holds flags for the backfill command.
type BackfillOptions struct {
	*RootOptions
	PathScope       string
	Since           string
	Until           string
	Tags            []string
	Mode            string
	Form            string
	To              []string
	IncludeChanged  bool
	IncludeArchived bool
	Sample          int
	Seed            int64
	DryRun          bool
}

// NewBackfillCommand creates the bulk publish command.
func NewBackfillCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackfillOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Publish everything not yet published",
		Long: `Select content×platform pairs through the filter chain and publish
every pair the registry has no record of. Already-published pairs are
skipped; pass --include-changed to also re-publish items whose content
changed since they were published.

Examples:
  herald backfill --to webhook
  herald backfill --since 2w --tag golang --sample 5
  herald backfill --path posts/2025 --include-changed --dry-run`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.PathScope, "path", "", "restrict to a path or directory prefix")
	cmd.Flags().StringVar(&opts.Since, "since", "", "only items modified after (7d, 2w, 2025-01-01)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "only items modified before (7d, 2w, 2025-01-01)")
	cmd.Flags().StringSliceVarP(&opts.Tags, "tag", "t", nil, "only items with any of these tags")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "platform mode class (api|manual)")
	cmd.Flags().StringVar(&opts.Form, "form", "", "platform form class (long|short)")
	cmd.Flags().StringSliceVar(&opts.To, "to", nil, "target platforms (default: all loaded)")
	cmd.Flags().BoolVar(&opts.IncludeChanged, "include-changed", false, "also act on changed items")
	cmd.Flags().BoolVar(&opts.IncludeArchived, "include-archived", false, "also act on archived items")
	cmd.Flags().IntVar(&opts.Sample, "sample", 0, "publish at most N randomly chosen pairs")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "pin the sampling source (0 = random)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show what would be published")

	return cmd
}

func runBackfill(opts *BackfillOptions, cmd *cobra.Command) error {
	app, err := newApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	spec, err := buildSpec(opts)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid filter", err)
	}

	items, err := app.discover()
	if err != nil {
		return err
	}

	pairs := app.pipeline().Apply(items, app.targetPlatforms(opts.To), spec)
	report := app.auditEngine(opts.IncludeArchived).Report(pairs)
	candidates := report.Candidates(opts.IncludeChanged)

	if opts.DryRun {
		app.out.Textf("would publish %d pair(s):", len(candidates))
		for _, e := range candidates {
			app.out.Textf("  %-10s %-32s %s", e.Platform, e.Path, e.Status)
		}
		if app.out.Format == "json" {
			return app.out.JSON(struct {
				Command    string        `json:"command"`
				DryRun     bool          `json:"dryRun"`
				Candidates []audit.Entry `json:"candidates"`
			}{"backfill", true, candidates})
		}
		return nil
	}

	run := app.orch.Publish(cmd.Context(), "backfill", candidates)
	return emitRun(app.out, run)
}

func buildSpec(opts *BackfillOptions) (filter.Spec, error) {
	spec := filter.Spec{
		PathScope:       opts.PathScope,
		Mode:            platform.Mode(opts.Mode),
		Form:            platform.Form(opts.Form),
		Tags:            opts.Tags,
		IncludeArchived: opts.IncludeArchived,
		SampleSize:      opts.Sample,
		SampleSeed:      opts.Seed,
		Policy:          filter.SelectMissing,
	}
	if opts.IncludeChanged {
		spec.Policy = filter.SelectMissingChanged
	}

	now := time.Now()
	if opts.Since != "" {
		t, err := filter.ParseDate(opts.Since, now)
		if err != nil {
			return spec, err
		}
		spec.Since = t
	}
	if opts.Until != "" {
		t, err := filter.ParseDate(opts.Until, now)
		if err != nil {
			return spec, err
		}
		spec.Until = t
	}
	return spec, nil
}

// emitRun prints a run report and maps its outcome to the process exit
// signal. A clean run returns nil; anything else carries the code.
func emitRun(out *OutputFormatter, run orchestrator.RunReport) error {
	if out.Format == "json" {
		if err := out.JSON(run); err != nil {
			return err
		}
	} else {
		for _, r := range run.Results {
			switch {
			case r.Success:
				out.Textf("ok    %-10s %-32s %s", r.Platform, r.Path, r.URL)
			case r.State == orchestrator.StateSkipped:
				out.Textf("skip  %-10s %-32s %s", r.Platform, r.Path, r.Error)
			default:
				out.Textf("FAIL  %-10s %-32s %s", r.Platform, r.Path, r.Error)
			}
		}
		out.Textf("succeeded=%d failed=%d skipped=%d",
			run.Summary.Succeeded, run.Summary.Failed, run.Summary.Skipped)
	}

	if code := run.Outcome().ExitCode(); code != ExitSuccess {
		return &ExitError{Code: code, Message: "run did not fully succeed"}
	}
	return nil
}
