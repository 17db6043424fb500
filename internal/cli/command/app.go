// Package command implements the aoi subcommands.
package command

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"vscsfarm/internal/cli/prompt"
	"vscsfarm/internal/cli/ui"
	"vscsfarm/internal/platform"
	pkgerrors "vscsfarm/pkg/errors"
	"vscsfarm/pkg/session"
	"vscsfarm/pkg/utils/logger"

	"github.com/spf13/cobra"
)

const defaultAPITimeout = 30 * time.Second

// Options configures an App. Zero values use the process environment.
type Options struct {
	Out      io.Writer
	Err      io.Writer
	Prompter prompt.Prompter
	WorkDir  string
	EnvPath  string
	Version  string
}

// App is the aoi command tree with its dependencies.
type App struct {
	rootCmd  *cobra.Command
	out      io.Writer
	errOut   io.Writer
	printer  *ui.Printer
	prompter prompt.Prompter
	workDir  string
	envPath  string
	verbose  bool
	timeout  time.Duration

	env    *session.Env
	client *platform.Client
}

// New wires the command tree.
func New(opts Options) *App {
	app := &App{
		out:      opts.Out,
		errOut:   opts.Err,
		prompter: opts.Prompter,
		workDir:  opts.WorkDir,
		envPath:  opts.EnvPath,
		timeout:  defaultAPITimeout,
	}
	if app.out == nil {
		app.out = os.Stdout
	}
	if app.errOut == nil {
		app.errOut = os.Stderr
	}
	if opts.Out == nil {
		app.printer = ui.NewPrinter(app.out, app.errOut)
	} else {
		app.printer = ui.NewPlainPrinter(app.out, app.errOut)
	}
	if app.envPath == "" {
		app.envPath = session.DefaultPath
	}
	if app.workDir == "" {
		app.workDir = "."
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}
	app.rootCmd = &cobra.Command{
		Use:           "aoi",
		Short:         "AOI Client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if app.verbose {
				level = "debug"
			}
			return logger.Init(logger.Config{Level: level, Format: "console", OutputPath: "stderr"})
		},
	}
	app.rootCmd.SetOut(app.out)
	app.rootCmd.SetErr(app.errOut)
	app.rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Log API calls")
	app.rootCmd.PersistentFlags().StringVar(&app.envPath, "env", app.envPath, "Session environment file")
	app.rootCmd.PersistentFlags().DurationVar(&app.timeout, "timeout", app.timeout, "API request timeout")

	app.rootCmd.AddCommand(NewProblemCmd(app), NewContestCmd(app))
	return app
}

// Run executes the command line args.
func (a *App) Run(ctx context.Context, args []string) error {
	a.rootCmd.SetArgs(args)
	err := a.rootCmd.ExecuteContext(ctx)
	if t, ok := a.prompter.(*prompt.Terminal); ok {
		_ = t.Close()
	}
	return err
}

// Printer returns the output printer, for reporting top-level errors.
func (a *App) Printer() *ui.Printer {
	return a.printer
}

func (a *App) session() (*session.Env, error) {
	if a.env != nil {
		return a.env, nil
	}
	env, err := session.Load(a.envPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pkgerrors.New(pkgerrors.SessionMissing).
				WithMessagef("session environment %s not found; run aoi inside an editor container", a.envPath)
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.SessionMissing)
	}
	a.env = &env
	return a.env, nil
}

func (a *App) api() (*platform.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	env, err := a.session()
	if err != nil {
		return nil, err
	}
	a.client = platform.New(env.APIRoot, a.timeout, func() string { return env.Token })
	return a.client, nil
}

func (a *App) ask() prompt.Prompter {
	if a.prompter == nil {
		a.prompter = prompt.NewTerminal()
	}
	return a.prompter
}

// contestID picks the flag value, then the session's contest, then asks.
func (a *App) contestID(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	env, err := a.session()
	if err != nil {
		return "", err
	}
	if env.ContestID != "" {
		return env.ContestID, nil
	}
	return a.ask().Text("Contest ID")
}
