package command

import (
	"context"

	"vscsfarm/internal/platform"
	pkgerrors "vscsfarm/pkg/errors"

	"github.com/spf13/cobra"
)

// ProblemRef selects a problem by id, or by slug within a contest.
type ProblemRef struct {
	ProblemID string
	ContestID string
	Slug      string
}

func (r *ProblemRef) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.ProblemID, "problem", "p", "", "Problem ID")
	cmd.Flags().StringVarP(&r.ContestID, "contest", "c", "", "Contest ID")
}

// NewProblemShowCmd creates the problem show command.
func NewProblemShowCmd(app *App) *cobra.Command {
	ref := ProblemRef{}

	cmd := &cobra.Command{
		Use:   "show [slug]",
		Short: "Print a problem statement",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				ref.Slug = args[0]
			}
			ctx := cmd.Context()
			client, err := app.api()
			if err != nil {
				return err
			}
			contestID, problemID, err := app.resolveProblem(ctx, client, ref)
			if err != nil {
				return err
			}
			problem, err := client.Problem(ctx, contestID, problemID)
			if err != nil {
				return err
			}
			return app.printer.Markdown(problem.Description)
		},
	}
	ref.bind(cmd)

	return cmd
}

// resolveProblem returns the contest and problem ids a command works on.
func (a *App) resolveProblem(ctx context.Context, client *platform.Client, ref ProblemRef) (string, string, error) {
	contestID, err := a.contestID(ref.ContestID)
	if err != nil {
		return "", "", err
	}
	if ref.ProblemID != "" {
		return contestID, ref.ProblemID, nil
	}

	slug := ref.Slug
	if slug == "" {
		if slug, err = a.ask().Text("Problem Slug"); err != nil {
			return "", "", err
		}
	}
	if slug == "" {
		return "", "", pkgerrors.New(pkgerrors.ProblemNotResolvable)
	}
	if contestID == "" {
		return "", "", pkgerrors.New(pkgerrors.ProblemNotResolvable).
			WithMessage("Cannot resolve problem ID outside of contest")
	}

	problems, err := client.ContestProblems(ctx, contestID)
	if err != nil {
		return "", "", err
	}
	for _, p := range problems {
		if p.Settings.Slug == slug {
			return contestID, p.ID, nil
		}
	}
	return "", "", pkgerrors.Newf(pkgerrors.ProblemNotFound, "no problem with slug %s in contest %s", slug, contestID)
}
