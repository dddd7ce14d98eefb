package cli

import (
	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the remote-deletion command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <path> <platform>",
		Short: "Delete a publication from a platform",
		Long: `Delete the remote publication recorded for a content item on one
platform and soft-delete its registry record. The local history is
kept; the pair becomes eligible for publishing again.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runDelete(opts *RootOptions, path, platformName string, cmd *cobra.Command) error {
	app, err := newApp(opts, cmd)
	if err != nil {
		return err
	}

	if err := app.orch.Delete(cmd.Context(), path, platformName); err != nil {
		return WrapExitError(ExitFailure, "delete", err)
	}

	if app.out.Format == "json" {
		return app.out.JSON(struct {
			Command  string `json:"command"`
			Path     string `json:"path"`
			Platform string `json:"platform"`
			Deleted  bool   `json:"deleted"`
		}{"delete", path, platformName, true})
	}
	app.out.Textf("deleted %s from %s", path, platformName)
	return nil
}
