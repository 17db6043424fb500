package command

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"vscsfarm/internal/cli/archive"
	"vscsfarm/internal/platform"
	pkgerrors "vscsfarm/pkg/errors"
	"vscsfarm/pkg/utils/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewProblemSubmitCmd creates the problem submit command.
func NewProblemSubmitCmd(app *App) *cobra.Command {
	ref := ProblemRef{}

	cmd := &cobra.Command{
		Use:   "submit [slug]",
		Short: "Submit a solution",
		Long: `Submit packs a solution the way the problem asks for it (a single
file, a folder or a set of form files), uploads it and submits it for
judging.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				ref.Slug = args[0]
			}
			return app.submit(cmd.Context(), ref)
		},
	}
	ref.bind(cmd)

	return cmd
}

func (a *App) submit(ctx context.Context, ref ProblemRef) error {
	client, err := a.api()
	if err != nil {
		return err
	}
	contestID, problemID, err := a.resolveProblem(ctx, client, ref)
	if err != nil {
		return err
	}
	problem, err := client.Problem(ctx, contestID, problemID)
	if err != nil {
		return err
	}

	methods := problem.Config.Submit.Methods()
	if len(methods) == 0 {
		return pkgerrors.New(pkgerrors.SubmitMethodMissing).WithDetail("problem", problemID)
	}
	method, err := a.ask().Select("Submit Method", methods)
	if err != nil {
		return err
	}

	tmp, err := os.MkdirTemp("", "aoi-submit-")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	info, err := a.packSolution(filepath.Join(tmp, "solution.zip"), method, problem.Config.Submit)
	if err != nil {
		return err
	}
	a.printer.Info("File packed into %s size=%dBytes sha256=%s", info.Path, info.Size, info.SHA256)

	ticket, err := client.CreateSolution(ctx, contestID, problemID, info.SHA256, info.Size)
	if err != nil {
		return err
	}
	logger.Debug(ctx, "solution created", zap.String("solution_id", ticket.SolutionID))
	if err := client.UploadFile(ctx, ticket.UploadURL, info.Path); err != nil {
		return err
	}
	a.printer.Success("Uploaded solution %s", ticket.SolutionID)
	if err := client.SubmitSolution(ctx, contestID, problemID, ticket.SolutionID); err != nil {
		return err
	}
	a.printer.Success("Submitted solution %s", ticket.SolutionID)
	return nil
}

func (a *App) packSolution(dst, method string, submit platform.SubmitConfig) (archive.Info, error) {
	var fill func(b *archive.Builder) error
	switch method {
	case platform.SubmitUpload:
		file, err := a.ask().Text("File")
		if err != nil {
			return archive.Info{}, err
		}
		file = a.path(file)
		fill = func(b *archive.Builder) error {
			return b.AddFile(filepath.Base(file), file)
		}
	case platform.SubmitZipFolder:
		folder, err := a.ask().Text("Folder")
		if err != nil {
			return archive.Info{}, err
		}
		prefix := folderPrefix(folder)
		folder = a.path(folder)
		fill = func(b *archive.Builder) error {
			return b.AddDir(prefix, folder)
		}
	case platform.SubmitForm:
		sources := make([]string, len(submit.Form.Files))
		for i, f := range submit.Form.Files {
			src, err := a.ask().Text("File " + f.Label)
			if err != nil {
				return archive.Info{}, err
			}
			sources[i] = a.path(src)
		}
		fill = func(b *archive.Builder) error {
			for i, f := range submit.Form.Files {
				if err := b.AddFile(f.Path, sources[i]); err != nil {
					return err
				}
			}
			return nil
		}
	default:
		return archive.Info{}, pkgerrors.Newf(pkgerrors.SubmitMethodMissing, "unknown submit method %s", method)
	}
	return archive.Create(dst, fill)
}

// folderPrefix is the entry prefix for a folder as the user typed it, so
// "sol" packs "sol/main.cpp". Roots and parent segments are dropped.
func folderPrefix(typed string) string {
	p := filepath.Clean(typed)
	p = strings.TrimPrefix(p, filepath.VolumeName(p))
	p = strings.TrimLeft(filepath.ToSlash(p), "/")
	for p == ".." || strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(strings.TrimPrefix(p, ".."), "/")
	}
	if p == "." {
		return ""
	}
	return p
}

// path resolves a user supplied path against the working directory.
func (a *App) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.workDir, p)
}
