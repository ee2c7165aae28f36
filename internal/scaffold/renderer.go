package scaffold

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-getter"
	cp "github.com/otiai10/copy"

	errUtils "github.com/sripwoud/cza/errors"
)

// Renderer materializes source into dest with vars substituted. Either dest
// ends up fully populated or an error wrapping ErrRenderFailed is returned
// and dest is left as it was.
type Renderer interface {
	Render(ctx context.Context, source, dest string, vars map[string]string) error
}

// FetchFunc downloads source into the directory dst.
type FetchFunc func(ctx context.Context, source, dst string) error

// TemplateRenderer is the default Renderer.
type TemplateRenderer struct {
	fetch FetchFunc
}

// Option configures a TemplateRenderer.
type Option func(*TemplateRenderer)

// WithFetch replaces the go-getter download.
func WithFetch(fn FetchFunc) Option {
	return func(r *TemplateRenderer) { r.fetch = fn }
}

// New returns a TemplateRenderer.
func New(opts ...Option) *TemplateRenderer {
	r := &TemplateRenderer{fetch: Fetch}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch downloads a go-getter locator (git::, https://, a local path, ...)
// into dst.
func Fetch(ctx context.Context, source, dst string) error {
	pwd, _ := os.Getwd()
	client := &getter.Client{
		Ctx: ctx,
		Src: source,
		// The directory is created if it does not exist.
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeDir,
	}
	return client.Get()
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(ctx context.Context, source, dest string, vars map[string]string) error {
	if err := r.render(ctx, source, dest, vars); err != nil {
		return errors.Wrapf(errUtils.ErrRenderFailed, "%v", err)
	}
	return nil
}

func (r *TemplateRenderer) render(ctx context.Context, source, dest string, vars map[string]string) error {
	fetchDir, err := os.MkdirTemp("", "cza-fetch-")
	if err != nil {
		return errors.Wrap(err, "creating fetch directory")
	}
	defer removeAll(fetchDir)

	log.Debug("Fetching template", "source", source)
	srcDir := filepath.Join(fetchDir, "src")
	if err := r.fetch(ctx, source, srcDir); err != nil {
		return errors.Wrapf(err, "fetching %s", source)
	}
	// Local sources arrive as a symlink.
	srcDir, err = filepath.EvalSymlinks(srcDir)
	if err != nil {
		return errors.Wrap(err, "resolving fetched template")
	}

	// Stage next to dest so the final rename stays on one filesystem.
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", parent)
	}
	stageDir, err := os.MkdirTemp(parent, ".cza-render-")
	if err != nil {
		return errors.Wrap(err, "creating staging directory")
	}
	defer removeAll(stageDir)

	staged := filepath.Join(stageDir, "out")
	files, err := renderTree(ctx, srcDir, staged, vars)
	if err != nil {
		return err
	}
	log.Debug("Rendered template", "files", files)

	return place(staged, dest)
}

// place moves the staged tree to dest. An existing dest is backed up first
// and restored if the merge fails partway.
func place(staged, dest string) error {
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		if err := os.Rename(staged, dest); err != nil {
			return errors.Wrapf(err, "moving project into %s", dest)
		}
		return nil
	}

	backupRoot, err := os.MkdirTemp(filepath.Dir(dest), ".cza-backup-")
	if err != nil {
		return errors.Wrap(err, "creating backup directory")
	}
	backup := filepath.Join(backupRoot, "prev")
	if err := cp.Copy(dest, backup, copyOptions()); err != nil {
		removeAll(backupRoot)
		return errors.Wrapf(err, "backing up %s", dest)
	}

	if err := cp.Copy(staged, dest, copyOptions()); err != nil {
		mergeErr := errors.Wrapf(err, "copying project into %s", dest)
		if restoreErr := restore(backup, dest); restoreErr != nil {
			log.Warn("Could not restore destination", "dest", dest, "backup", backup, "error", restoreErr)
			return errors.WithHint(mergeErr, "The previous contents are kept in "+backup)
		}
		removeAll(backupRoot)
		return mergeErr
	}

	removeAll(backupRoot)
	return nil
}

// restore replaces dest with the backup taken before the merge.
func restore(backup, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	return os.Rename(backup, dest)
}

func copyOptions() cp.Options {
	return cp.Options{
		PreserveTimes: false,
		PreserveOwner: false,
		OnSymlink: func(string) cp.SymlinkAction {
			return cp.Shallow
		},
	}
}

func removeAll(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.Debug("Failed to remove temporary directory", "dir", dir, "error", err)
	}
}
