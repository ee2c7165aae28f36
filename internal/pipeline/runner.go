package pipeline

import (
	"context"
	"io"
	"os"
	"os/exec"

	"al.essio.dev/pkg/shellescape"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// ErrToolNotFound is returned when a command is not on PATH.
var ErrToolNotFound = errors.New("command not found")

// CommandRunner runs an external command in dir and waits for it.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner is the os/exec CommandRunner. Output is streamed to Stdout and
// Stderr.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer

	// For tests.
	commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd
	lookPath    func(file string) (string, error)
}

// NewExecRunner returns a runner writing to the process streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		commandFunc: exec.CommandContext,
		lookPath:    exec.LookPath,
	}
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	bin, err := r.lookPath(name)
	if err != nil {
		return errors.Wrapf(ErrToolNotFound, "%s", name)
	}

	log.Debug("Running command", "cmd", shellescape.QuoteCommand(append([]string{name}, args...)), "dir", dir)

	cmd := r.commandFunc(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if code := exitErr.ExitCode(); code >= 0 {
				return errors.Newf("%s exited with status %d", name, code)
			}
			return errors.Newf("%s was terminated (%v)", name, exitErr.ProcessState)
		}
		return errors.Wrapf(err, "running %s", name)
	}
	return nil
}
