package pipeline

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"mvdan.cc/sh/v3/shell"

	"github.com/sripwoud/cza/internal/planner"
)

// Hints shown when a step fails.
const (
	hintGitInit     = "Run 'git init' in the project directory"
	hintInstallDeps = "Install mise (https://mise.jdx.dev) and run 'mise install' in the project directory"
	hintSetupHooks  = "Install hk (https://hk.jdx.dev) and run 'hk install' in the project directory"
	hintOpenEditor  = "Set post_generation.editor or $EDITOR to an editor command"
)

// StepExecutor is the default Executor. It initializes git repositories
// in-process and shells out for everything else.
type StepExecutor struct {
	runner  CommandRunner
	gitInit func(dir string) error
}

// ExecutorOption configures a StepExecutor.
type ExecutorOption func(*StepExecutor)

// WithRunner replaces the command runner.
func WithRunner(r CommandRunner) ExecutorOption {
	return func(e *StepExecutor) { e.runner = r }
}

// NewExecutor returns a StepExecutor using os/exec and go-git.
func NewExecutor(opts ...ExecutorOption) *StepExecutor {
	e := &StepExecutor{
		runner:  NewExecRunner(),
		gitInit: initRepository,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute implements Executor.
func (e *StepExecutor) Execute(ctx context.Context, plan *planner.Plan, step planner.Step) error {
	dir := plan.Destination()

	switch step.Kind {
	case planner.StepGitInit:
		if err := e.gitInit(dir); err != nil {
			return errors.WithHint(err, hintGitInit)
		}
		return nil
	case planner.StepInstallDeps:
		return withHint(e.runner.Run(ctx, dir, "mise", "install"), hintInstallDeps)
	case planner.StepSetupHooks:
		return withHint(e.runner.Run(ctx, dir, "hk", "install"), hintSetupHooks)
	case planner.StepOpenEditor:
		return withHint(e.openEditor(ctx, plan.Editor(), dir), hintOpenEditor)
	}
	return errors.Newf("unsupported step %q", step.Kind)
}

func (e *StepExecutor) openEditor(ctx context.Context, editor, dir string) error {
	fields, err := shell.Fields(editor, os.Getenv)
	if err != nil {
		return errors.Wrapf(err, "parsing editor command %q", editor)
	}
	if len(fields) == 0 {
		return errors.New("editor command is empty")
	}
	args := append(fields[1:], dir)
	return e.runner.Run(ctx, dir, fields[0], args...)
}

func initRepository(dir string) error {
	_, err := git.PlainInit(dir, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		log.Debug("Git repository already exists", "dir", dir)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "initializing git repository in %s", dir)
	}
	return nil
}

func withHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return errors.WithHint(err, hint)
}
