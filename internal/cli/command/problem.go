package command

import (
	"github.com/spf13/cobra"
)

// NewProblemCmd creates the problem parent command.
func NewProblemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problem",
		Short: "Work with problems",
	}

	cmd.AddCommand(
		NewProblemDeployCmd(app),
		NewProblemShowCmd(app),
		NewProblemSubmitCmd(app),
	)

	return cmd
}
