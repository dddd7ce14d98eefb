package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/herald/internal/audit"
	"github.com/roach88/herald/internal/filter"
)

// AuditOptions holds flags for the audit command.
type AuditOptions struct {
	*RootOptions
	PathScope       string
	To              []string
	Tags            []string
	IncludeArchived bool
	Status          string
}

// NewAuditCommand creates the read-only reconciliation command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Compare local content against the registry",
		Long: `Classify every content×platform pair as missing, published, changed,
archived or failed. The audit is read-only: it never touches platforms
or mutates the registry.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.PathScope, "path", "", "restrict to a path or directory prefix")
	cmd.Flags().StringSliceVar(&opts.To, "to", nil, "platforms to audit (default: all loaded)")
	cmd.Flags().StringSliceVarP(&opts.Tags, "tag", "t", nil, "only items with any of these tags")
	cmd.Flags().BoolVar(&opts.IncludeArchived, "include-archived", false, "classify archived items by the normal rules")
	cmd.Flags().StringVar(&opts.Status, "status", "", "show only pairs with this status")

	return cmd
}

func runAudit(opts *AuditOptions, cmd *cobra.Command) error {
	app, err := newApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	items, err := app.discover()
	if err != nil {
		return err
	}

	spec := filter.Spec{
		PathScope:       opts.PathScope,
		Tags:            opts.Tags,
		Policy:          filter.SelectAll,
		IncludeArchived: true, // the report shows archived pairs; action does not
	}
	pairs := app.pipeline().Apply(items, app.targetPlatforms(opts.To), spec)
	report := app.auditEngine(opts.IncludeArchived).Report(pairs)

	entries := report.Entries
	if opts.Status != "" {
		entries = report.ByStatus(audit.Status(opts.Status))
	}

	if app.out.Format == "json" {
		return app.out.JSON(struct {
			Command string         `json:"command"`
			Entries []audit.Entry  `json:"entries"`
			Counts  map[string]int `json:"counts"`
		}{"audit", entries, countsByName(report)})
	}

	for _, e := range entries {
		detail := e.RemoteURL
		if e.Error != "" {
			detail = e.Error
		}
		app.out.Textf("%-10s %-10s %-40s %s", e.Status, e.Platform, e.Path, detail)
	}
	counts := report.Counts()
	app.out.Textf("missing=%d published=%d changed=%d archived=%d failed=%d",
		counts[audit.StatusMissing], counts[audit.StatusPublished],
		counts[audit.StatusChanged], counts[audit.StatusArchived],
		counts[audit.StatusFailed])
	return nil
}

func countsByName(r audit.Report) map[string]int {
	out := make(map[string]int)
	for status, n := range r.Counts() {
		out[string(status)] = n
	}
	return out
}
