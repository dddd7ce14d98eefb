package cli

import (
	"github.com/spf13/cobra"
)

// ArchiveOptions holds flags for the archive command.
type ArchiveOptions struct {
	*RootOptions
	Unset bool
}

// NewArchiveCommand creates the archive toggle command.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArchiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "archive <path>",
		Short: "Exclude an item from bulk operations",
		Long: `Mark a tracked item archived so bulk commands pass over it, or clear
the mark with --unset. Existing publication records are untouched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Unset, "unset", false, "clear the archived mark")

	return cmd
}

func runArchive(opts *ArchiveOptions, path string, cmd *cobra.Command) error {
	app, err := newApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	archived := !opts.Unset
	if err := app.reg.SetArchived(path, archived); err != nil {
		return WrapExitError(ExitFailure, "archive", err)
	}

	if app.out.Format == "json" {
		return app.out.JSON(struct {
			Command  string `json:"command"`
			Path     string `json:"path"`
			Archived bool   `json:"archived"`
		}{"archive", path, archived})
	}
	if archived {
		app.out.Textf("archived %s", path)
	} else {
		app.out.Textf("unarchived %s", path)
	}
	return nil
}
