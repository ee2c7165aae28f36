// Package errors defines the sentinel errors shared across cza and the
// mapping from those errors to process exit codes. Callers import it as
// errUtils to avoid shadowing the standard library package.
package errors

import (
	"github.com/cockroachdb/errors"
)

// Configuration errors. Fatal to a single config invocation only.
var (
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrInvalidConfigValue = errors.New("invalid configuration value")
	ErrConfigLoad         = errors.New("failed to load configuration")
	ErrConfigWrite        = errors.New("failed to write configuration")
)

// Template errors.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidTemplate  = errors.New("invalid template descriptor")
	ErrRegistryLoad     = errors.New("failed to load template registry")
)

// Generation errors. Fatal to the whole new command.
var (
	ErrNoTemplateSpecified = errors.New("no template specified")
	ErrInvalidProjectName  = errors.New("invalid project name")
	ErrDestinationExists   = errors.New("destination already exists")
	ErrRenderFailed        = errors.New("failed to render template")
)

// Update errors. Fatal to the update command, never to the installation.
var (
	ErrUpdateNetwork    = errors.New("network error while updating")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrSwapFailed       = errors.New("failed to replace executable")
	ErrReleaseNotFound  = errors.New("release not found")
	ErrNoPlatformAsset  = errors.New("no release asset for this platform")
)

// ErrInvalidUsage marks malformed command-line input that cobra did not catch.
var ErrInvalidUsage = errors.New("invalid usage")
