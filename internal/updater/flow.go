package updater

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// State is a step of the update state machine:
// check -> (up-to-date | update-available) -> download -> verify -> swap -> done.
type State string

const (
	StateCheck           State = "check"
	StateUpToDate        State = "up-to-date"
	StateUpdateAvailable State = "update-available"
	StateDownload        State = "download"
	StateVerify          State = "verify"
	StateSwap            State = "swap"
	StateDone            State = "done"
)

// Request selects what Update does.
type Request struct {
	// Version pins a release tag; empty means latest.
	Version string
	// CheckOnly stops after the check.
	CheckOnly bool
	// Force installs even when already up to date.
	Force bool
}

// Result reports where the state machine stopped.
type Result struct {
	Manifest Manifest
	State    State
}

// Updated reports whether the executable was replaced.
func (r *Result) Updated() bool { return r.State == StateDone }

// Check looks up the requested release and reports whether it is newer than
// the running version.
func (u *Updater) Check(ctx context.Context, version string) (*Release, bool, error) {
	u.enter(StateCheck)

	var (
		release *Release
		err     error
	)
	if version != "" {
		release, err = u.CheckSpecificVersion(ctx, version)
	} else {
		release, err = u.CheckLatestVersion(ctx)
	}
	if err != nil {
		return nil, false, err
	}

	available, err := IsUpdateAvailable(u.currentVersion, release.Version)
	if err != nil {
		return nil, false, errors.Wrap(err, "comparing versions")
	}
	return release, available, nil
}

// Update runs the state machine. A failure at any point leaves the installed
// executable untouched.
func (u *Updater) Update(ctx context.Context, req Request) (*Result, error) {
	release, available, err := u.Check(ctx, req.Version)
	if err != nil {
		return nil, err
	}

	result := &Result{Manifest: Manifest{
		CurrentVersion: u.currentVersion,
		LatestVersion:  release.Version,
	}}

	if !available && (!req.Force || req.CheckOnly) {
		result.State = StateUpToDate
		u.enter(result.State)
		return result, nil
	}
	result.State = StateUpdateAvailable
	u.enter(result.State)
	if req.CheckOnly {
		return result, nil
	}

	asset, err := SelectAssetForPlatform(release.Assets)
	if err != nil {
		return result, err
	}
	result.Manifest.AssetName = asset.Name
	result.Manifest.DownloadURL = asset.DownloadURL

	checksum, err := u.FetchChecksum(ctx, release, asset.Name)
	if err != nil {
		return result, err
	}
	result.Manifest.Checksum = checksum

	tmpDir, err := os.MkdirTemp("", "cza-update-*")
	if err != nil {
		return result, errors.Wrap(err, "creating temp directory")
	}
	defer os.RemoveAll(tmpDir)

	result.State = StateDownload
	u.enter(result.State)
	archivePath, err := u.DownloadAsset(ctx, asset, tmpDir)
	if err != nil {
		return result, err
	}

	result.State = StateVerify
	u.enter(result.State)
	if err := VerifyChecksum(archivePath, checksum); err != nil {
		return result, err
	}
	binPath, err := ExtractBinary(archivePath, tmpDir)
	if err != nil {
		return result, err
	}
	if err := u.verify(ctx, binPath, release.Version); err != nil {
		return result, errors.Wrap(err, "verifying new binary")
	}

	result.State = StateSwap
	u.enter(result.State)
	swapper, err := u.swapperFor()
	if err != nil {
		return result, err
	}
	if err := swapper.ReplaceExecutable(binPath); err != nil {
		return result, err
	}

	result.State = StateDone
	u.enter(result.State)
	return result, nil
}

func (u *Updater) swapperFor() (Swapper, error) {
	if u.swapper != nil {
		return u.swapper, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "finding current executable")
	}
	return NewFileSwapper(afero.NewOsFs(), exe), nil
}

func (u *Updater) enter(s State) {
	log.Debug("Update state", "state", s)
	if u.onState != nil {
		u.onState(s)
	}
}
