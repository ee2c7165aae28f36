package updater

import (
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/branding"
)

const verifyTimeout = 5 * time.Second

// Swapper replaces the installed executable with the file at tempPath.
// After a failed swap the original executable must be unchanged.
type Swapper interface {
	ReplaceExecutable(tempPath string) error
}

// FileSwapper writes the new binary to a sibling of the target and renames
// it over the target, so the target is never half-written.
type FileSwapper struct {
	fs     afero.Fs
	target string
}

// NewFileSwapper returns a FileSwapper for target on fs.
func NewFileSwapper(fs afero.Fs, target string) *FileSwapper {
	return &FileSwapper{fs: fs, target: target}
}

// ReplaceExecutable implements Swapper. The target keeps its permissions.
func (s *FileSwapper) ReplaceExecutable(tempPath string) error {
	if IsWindows() {
		return errors.WithHint(
			errors.Wrap(errUtils.ErrSwapFailed, "replacing a running executable is not supported on Windows"),
			"Download the latest version from https://github.com/"+branding.GitHubRepo()+"/releases",
		)
	}

	info, err := s.fs.Stat(s.target)
	if err != nil {
		return errors.Wrapf(errUtils.ErrSwapFailed, "stat %s: %v", s.target, err)
	}

	staged, err := s.stage(tempPath)
	if err != nil {
		return errors.Wrapf(errUtils.ErrSwapFailed, "%v", err)
	}

	if err := s.fs.Chmod(staged, info.Mode().Perm()); err != nil {
		s.discard(staged)
		return errors.Wrapf(errUtils.ErrSwapFailed, "chmod %s: %v", staged, err)
	}
	if err := s.fs.Rename(staged, s.target); err != nil {
		s.discard(staged)
		return errors.Wrapf(errUtils.ErrSwapFailed, "renaming over %s: %v", s.target, err)
	}
	return nil
}

// stage copies tempPath into a temp file in the target's directory.
func (s *FileSwapper) stage(tempPath string) (string, error) {
	src, err := s.fs.Open(tempPath)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", tempPath)
	}
	defer src.Close()

	dst, err := afero.TempFile(s.fs, filepath.Dir(s.target), "."+filepath.Base(s.target)+".new-")
	if err != nil {
		return "", errors.Wrap(err, "creating staging file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		s.discard(dst.Name())
		return "", errors.Wrap(err, "copying new binary")
	}
	if err := dst.Close(); err != nil {
		s.discard(dst.Name())
		return "", errors.Wrap(err, "closing staging file")
	}
	return dst.Name(), nil
}

func (s *FileSwapper) discard(path string) {
	if err := s.fs.Remove(path); err != nil {
		log.Debug("Failed to remove staging file", "path", path, "error", err)
	}
}

// VerifyFunc sanity-checks an extracted binary before it is installed.
type VerifyFunc func(ctx context.Context, binaryPath, expectedVersion string) error

// VerifyBinary runs the binary with "version --json" and checks that it
// reports a version.
func VerifyBinary(ctx context.Context, binaryPath, expectedVersion string) error {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, binaryPath, "version", "--json").Output()
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Newf("new binary timed out after %s", verifyTimeout)
	}
	if err != nil {
		return errors.Wrap(err, "new binary exited with error")
	}

	var info map[string]string
	if err := json.Unmarshal(output, &info); err != nil {
		return errors.Wrap(err, "parsing version output")
	}
	if info["version"] == "" {
		return errors.New("new binary did not report a version")
	}
	if info["version"] != expectedVersion {
		log.Debug("New binary reports a different version", "got", info["version"], "want", expectedVersion)
	}
	return nil
}
