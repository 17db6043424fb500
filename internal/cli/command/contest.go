package command

import (
	"github.com/spf13/cobra"
)

// NewContestCmd creates the contest parent command.
func NewContestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contest",
		Short: "Work with contests",
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Export contest data",
	}
	export.AddCommand(NewContestExportRanklistCmd(app))
	cmd.AddCommand(export)

	return cmd
}
