package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"vscsfarm/internal/cli/archive"
	"vscsfarm/internal/platform"
	pkgerrors "vscsfarm/pkg/errors"
	"vscsfarm/pkg/utils/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const solutionsPerPage = 30

// ExportOptions holds the flags of contest export ranklist.
type ExportOptions struct {
	// Limit caps the number of exported participants; all when unset
	Limit int
	// ContestID defaults to the session contest
	ContestID string
	// Ranklist key; prompted when empty
	Ranklist string
	// Output directory, one subdirectory per participant
	Output string
}

// NewContestExportRanklistCmd creates the contest export ranklist command.
func NewContestExportRanklistCmd(app *App) *cobra.Command {
	opts := ExportOptions{}

	cmd := &cobra.Command{
		Use:   "ranklist",
		Short: "Export the best solution of every participant in ranklist order",
		Long: `Export walks a ranklist and, for each participant, downloads and
extracts the best scoring solution of every problem. A stats.txt file in the
participant directory lists all solutions, the selected one marked with *.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				opts.Limit = -1
			} else if opts.Limit < 0 {
				return pkgerrors.New(pkgerrors.InvalidParams).WithMessage("limit must not be negative")
			}
			return app.exportRanklist(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Export at most this many participants")
	cmd.Flags().StringVarP(&opts.ContestID, "contest", "c", "", "Contest ID")
	cmd.Flags().StringVarP(&opts.Ranklist, "ranklist", "r", "", "Ranklist key")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output directory")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (a *App) exportRanklist(ctx context.Context, opts ExportOptions) error {
	client, err := a.api()
	if err != nil {
		return err
	}
	contestID, err := a.contestID(opts.ContestID)
	if err != nil {
		return err
	}
	if contestID == "" {
		return pkgerrors.New(pkgerrors.ContestNotFound).WithMessage("Contest ID is required")
	}

	problems, err := client.ContestProblems(ctx, contestID)
	if err != nil {
		return err
	}
	slugs := make(map[string]string, len(problems))
	for _, p := range problems {
		slugs[p.ID] = p.Settings.Slug
	}

	key := opts.Ranklist
	if key == "" {
		if key, err = a.ask().Text("Ranklist Key"); err != nil {
			return err
		}
	}
	downloadURL, err := client.RanklistDownloadURL(ctx, contestID, key)
	if err != nil {
		return err
	}
	var ranklist platform.Ranklist
	if err := client.DownloadJSON(ctx, downloadURL, &ranklist); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.RankingNotAvailable)
	}

	participants := ranklist.Participant.List
	if opts.Limit >= 0 && opts.Limit < len(participants) {
		participants = participants[:opts.Limit]
	}
	ok, err := a.ask().Confirm(fmt.Sprintf("Will export %d participants, continue?", len(participants)))
	if err != nil || !ok {
		return err
	}

	output := a.path(opts.Output)
	width := len(strconv.Itoa(len(participants)))
	for i, participant := range participants {
		a.printer.Info("Exporting (%0*d/%d) %s", width, i+1, len(participants), participant.UserID)
		if err := a.exportParticipant(ctx, client, contestID, output, width, participant, slugs); err != nil {
			return err
		}
	}
	a.printer.Success("Exported %d participants", len(participants))
	return nil
}

func (a *App) exportParticipant(ctx context.Context, client *platform.Client, contestID, output string,
	width int, participant platform.RanklistParticipant, slugs map[string]string) error {
	user, err := client.User(ctx, participant.UserID)
	if err != nil {
		return err
	}
	dir := filepath.Join(output, sanitizeFilename(fmt.Sprintf("%0*d-%s", width, participant.Rank, user.Profile.Name)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s failed: %w", dir, err)
	}

	var solutions []platform.Solution
	for page := 1; ; page++ {
		items, err := client.ContestSolutions(ctx, contestID, participant.UserID, page, solutionsPerPage)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			break
		}
		solutions = append(solutions, items...)
	}
	sort.SliceStable(solutions, func(i, j int) bool {
		return solutions[i].SubmittedAt < solutions[j].SubmittedAt
	})

	var order []string
	bySlug := make(map[string][]platform.Solution)
	for _, s := range solutions {
		slug := slugs[s.ProblemID]
		if slug == "" {
			slug = s.ProblemID
		}
		if _, seen := bySlug[slug]; !seen {
			order = append(order, slug)
		}
		bySlug[slug] = append(bySlug[slug], s)
	}

	var stats strings.Builder
	for _, slug := range order {
		list := bySlug[slug]
		best := bestSolution(list)
		fmt.Fprintf(&stats, "Problem %s Total %d solutions\n", slug, len(list))
		for i, s := range list {
			stats.WriteString(solutionLine(s))
			if i == best {
				stats.WriteString(" *")
			}
			stats.WriteString("\n")
		}
		stats.WriteString("\n")

		if err := a.fetchSolution(ctx, client, contestID, dir, sanitizeFilename(slug), list[best].ID); err != nil {
			return err
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "stats.txt"), []byte(stats.String()), 0o644); err != nil {
		return fmt.Errorf("write stats failed: %w", err)
	}
	return nil
}

// fetchSolution downloads <name>.zip into dir and unpacks it into <name>/.
// A broken archive is reported and skipped.
func (a *App) fetchSolution(ctx context.Context, client *platform.Client, contestID, dir, name, solutionID string) error {
	target, err := client.SolutionDataURL(ctx, contestID, solutionID)
	if err != nil {
		return err
	}
	zipPath := filepath.Join(dir, name+".zip")
	file, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create %s failed: %w", zipPath, err)
	}
	err = client.Download(ctx, target, file)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if err := archive.Extract(zipPath, filepath.Join(dir, name)); err != nil {
		logger.Warn(ctx, "extract solution failed", zap.String("solution_id", solutionID), zap.Error(err))
		a.printer.Warn("Cannot extract %s: %v", zipPath, err)
	}
	return nil
}

// bestSolution returns the index of the highest score, the earliest on ties.
func bestSolution(list []platform.Solution) int {
	best := 0
	for i, s := range list {
		if s.Score > list[best].Score {
			best = i
		}
	}
	return best
}

func solutionLine(s platform.Solution) string {
	submitted := "UNSUBMITTED"
	if s.SubmittedAt != 0 {
		submitted = time.UnixMilli(s.SubmittedAt).UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return submitted + " " + s.ID + " " + strconv.FormatFloat(s.Score, 'f', -1, 64)
}
