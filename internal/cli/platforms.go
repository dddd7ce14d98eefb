package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/herald/internal/platform"
)

// NewPlatformsCommand creates the platform listing command.
func NewPlatformsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "List configured platforms and their capabilities",
		Long: `List every registered platform adapter with its load status and, for
loaded platforms, the operations it supports.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlatforms(rootOpts, cmd)
		},
	}
	return cmd
}

type platformRow struct {
	Name         string                 `json:"name"`
	Status       string                 `json:"status"`
	Error        string                 `json:"error,omitempty"`
	Capabilities *platform.Capabilities `json:"capabilities,omitempty"`
}

func runPlatforms(opts *RootOptions, cmd *cobra.Command) error {
	app, err := newApp(opts, cmd)
	if err != nil {
		return err
	}

	var rows []platformRow
	for _, lr := range app.loads {
		row := platformRow{Name: lr.Name, Status: string(lr.Status)}
		if lr.Err != nil {
			row.Error = lr.Err.Error()
		}
		if p, ok := app.platforms.Resolve(lr.Name); ok {
			caps := p.Capabilities()
			row.Capabilities = &caps
		}
		rows = append(rows, row)
	}

	if app.out.Format == "json" {
		return app.out.JSON(struct {
			Command   string        `json:"command"`
			Platforms []platformRow `json:"platforms"`
		}{"platforms", rows})
	}

	for _, row := range rows {
		switch {
		case row.Error != "":
			app.out.Textf("%-10s %-8s %s", row.Name, row.Status, row.Error)
		case row.Capabilities != nil:
			c := row.Capabilities
			app.out.Textf("%-10s %-8s mode=%s form=%s update=%t delete=%t stats=%t threads=%t limit=%d",
				row.Name, row.Status, c.Mode, c.Form, c.Update, c.Delete, c.Stats, c.Threads, c.CharLimit)
		default:
			app.out.Textf("%-10s %s", row.Name, row.Status)
		}
	}
	return nil
}
