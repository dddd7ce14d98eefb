package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/herald/internal/registry"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	All    bool
	Failed bool
}

// NewStatusCommand creates the registry inspection command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show registry state for a tracked item",
		Long: `Show the recorded publications and unresolved failures for a content
item, or for every tracked item with --all.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runStatus(opts, path, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "show all tracked items")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "show only items with unresolved failures")

	return cmd
}

// statusEntry is the JSON shape for one tracked item.
type statusEntry struct {
	Path         string                                `json:"path"`
	Title        string                                `json:"title,omitempty"`
	Archived     bool                                  `json:"archived,omitempty"`
	Publications map[string]registry.PublicationRecord `json:"publications,omitempty"`
	Failures     map[string]registry.FailureRecord     `json:"failures,omitempty"`
}

func runStatus(opts *StatusOptions, path string, cmd *cobra.Command) error {
	app, err := newApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	var paths []string
	if path != "" {
		paths = []string{path}
	} else {
		if !opts.All && !opts.Failed {
			return NewExitError(ExitFailure, "give a path, or --all / --failed")
		}
		paths = app.reg.ListAll()
	}
	sort.Strings(paths)

	var entries []statusEntry
	for _, p := range paths {
		post, ok := app.reg.Get(p)
		if !ok {
			if path != "" {
				return NewExitError(ExitFailure, "not tracked: "+p)
			}
			continue
		}
		if opts.Failed && len(post.Failures) == 0 {
			continue
		}
		entries = append(entries, statusEntry{
			Path:         p,
			Title:        post.Title,
			Archived:     post.Archived,
			Publications: post.Publications,
			Failures:     post.Failures,
		})
	}

	if app.out.Format == "json" {
		return app.out.JSON(struct {
			Command string        `json:"command"`
			Items   []statusEntry `json:"items"`
		}{"status", entries})
	}

	for _, e := range entries {
		app.out.Textf("%s", e.Path)
		if e.Archived {
			app.out.Textf("  archived")
		}
		platforms := make([]string, 0, len(e.Publications))
		for name := range e.Publications {
			platforms = append(platforms, name)
		}
		sort.Strings(platforms)
		for _, name := range platforms {
			rec := e.Publications[name]
			if rec.Deleted {
				app.out.Textf("  %-10s deleted", name)
				continue
			}
			app.out.Textf("  %-10s %s (%s)", name, rec.URL, rec.PublishedAt.Format("2006-01-02"))
		}
		failures := make([]string, 0, len(e.Failures))
		for name := range e.Failures {
			failures = append(failures, name)
		}
		sort.Strings(failures)
		for _, name := range failures {
			f := e.Failures[name]
			app.out.Textf("  %-10s FAILED %s: %s", name, f.ErrorKind, f.Message)
		}
	}
	return nil
}
