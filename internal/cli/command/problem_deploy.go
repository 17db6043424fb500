package command

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"vscsfarm/internal/cli/archive"
	"vscsfarm/internal/cli/config"
	"vscsfarm/internal/platform"
	pkgerrors "vscsfarm/pkg/errors"
	"vscsfarm/pkg/utils/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DeployOptions holds the flags of problem deploy.
type DeployOptions struct {
	// PackOnly stops after the data archive is written
	PackOnly bool
	// Statement uploads statement.md before the data
	Statement bool
	// Description of the data revision; prompted when empty
	Description string
	// Set marks the new data as current without asking
	Set bool
	// Rejudge rejudges all solutions without asking
	Rejudge bool
}

// NewProblemDeployCmd creates the problem deploy command.
func NewProblemDeployCmd(app *App) *cobra.Command {
	opts := DeployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Pack and deploy the problem in the current directory",
		Long: `Deploy packs data/ together with the problem configuration into
dist/data.zip, uploads it and registers it as a new data revision of the
problem named in aoi.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.deploy(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.PackOnly, "pack-only", "P", false, "Only pack the data archive")
	cmd.Flags().BoolVarP(&opts.Statement, "statement", "s", false, "Upload statement.md as well")
	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "Data description")
	cmd.Flags().BoolVarP(&opts.Set, "set", "S", false, "Set the data as current")
	cmd.Flags().BoolVarP(&opts.Rejudge, "rejudge", "r", false, "Rejudge all solutions after setting the data")

	return cmd
}

func (a *App) deploy(ctx context.Context, opts DeployOptions) error {
	info, dataCfg, err := a.packData()
	if err != nil {
		return err
	}
	a.printer.Info("Data packed into %s size=%dBytes", info.Path, info.Size)
	a.printer.Info("Data sha256 hash = %s", info.SHA256)
	if opts.PackOnly {
		return nil
	}

	project, err := config.LoadProject(a.workDir)
	if err != nil {
		return err
	}
	client, err := a.api()
	if err != nil {
		return err
	}
	problemID := project.ProblemID
	logger.Debug(ctx, "deploying problem", zap.String("problem_id", problemID), zap.String("server", project.Server))

	if opts.Statement {
		if err := a.uploadStatement(ctx, client, problemID); err != nil {
			return err
		}
	}

	description := opts.Description
	if description == "" {
		if description, err = a.ask().Text("Description"); err != nil {
			return err
		}
	}
	if description == "" {
		return pkgerrors.New(pkgerrors.DescriptionRequired)
	}

	uploadURL, err := client.DataUploadURL(ctx, problemID, info.SHA256)
	if err != nil {
		return err
	}
	a.printer.Start("Uploading data")
	if err := client.UploadFile(ctx, uploadURL, info.Path); err != nil {
		return err
	}
	err = client.CreateProblemData(ctx, problemID, platform.ProblemData{
		Hash:        info.SHA256,
		Description: description,
		Config:      dataCfg,
	})
	if err != nil {
		return err
	}
	a.printer.Success("Problem Deployed with hash %s", info.SHA256[:7])

	set := opts.Set
	if !set {
		if set, err = a.ask().Confirm("Set as current data"); err != nil {
			return err
		}
	}
	if !set {
		return nil
	}
	if err := client.SetDataHash(ctx, problemID, info.SHA256); err != nil {
		return err
	}
	a.printer.Success("Data set as current")

	rejudge := opts.Rejudge
	if !rejudge {
		if rejudge, err = a.ask().Confirm("Rejudge solutions"); err != nil {
			return err
		}
	}
	if !rejudge {
		return nil
	}
	count, err := client.RejudgeAll(ctx, problemID)
	if err != nil {
		return err
	}
	a.printer.Success("Rejudged %d solutions", count)
	return nil
}

// packData writes dist/data.zip from data/ plus the problem configuration
// rendered as problem.json.
func (a *App) packData() (archive.Info, map[string]interface{}, error) {
	dataCfg, err := config.LoadDataConfig(a.workDir)
	if err != nil {
		return archive.Info{}, nil, err
	}
	encoded, err := json.MarshalIndent(dataCfg, "", "  ")
	if err != nil {
		return archive.Info{}, nil, fmt.Errorf("encode problem config failed: %w", err)
	}

	dst := filepath.Join(a.workDir, "dist", "data.zip")
	info, err := archive.Create(dst, func(b *archive.Builder) error {
		if err := b.AddDir("", filepath.Join(a.workDir, "data")); err != nil {
			return err
		}
		return b.AddBytes("problem.json", encoded)
	})
	if err != nil {
		return archive.Info{}, nil, pkgerrors.Wrap(err, pkgerrors.ProblemDataPackFailed)
	}
	return info, dataCfg, nil
}

func (a *App) uploadStatement(ctx context.Context, client *platform.Client, problemID string) error {
	a.printer.Start("Uploading statement")
	statement, err := config.LoadStatement(filepath.Join(a.workDir, "statement.md"))
	if err != nil {
		return err
	}
	err = client.UpdateProblemContent(ctx, problemID, platform.ProblemContent{
		Title:       statement.Meta.Title,
		Slug:        statement.Meta.Slug,
		Tags:        statement.Meta.Tags,
		Description: statement.Body,
	})
	if err != nil {
		return err
	}
	a.printer.Success("Statement uploaded")
	return nil
}
