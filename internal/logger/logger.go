// Package logger configures the process-wide charmbracelet logger. Commands
// log through the charm package-level functions once Setup has run.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sripwoud/cza/internal/branding"
)

// Options controls logger setup.
type Options struct {
	// Verbose enables debug output. Ignored when the level env var is set.
	Verbose bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// LevelEnvVar returns the name of the variable that overrides verbosity.
func LevelEnvVar() string {
	return branding.EnvVar("LOG")
}

// ParseLevel accepts debug, info, warn, error (case-insensitive).
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return log.DebugLevel, nil
	case "info", "":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("invalid log level %q: supported levels are debug, info, warn, error", s)
	}
}

// ResolveLevel returns the effective level. The env var takes precedence over
// the verbose setting; an unparsable env value falls back to the setting.
func ResolveLevel(verbose bool) log.Level {
	if v, ok := os.LookupEnv(LevelEnvVar()); ok {
		if lvl, err := ParseLevel(v); err == nil {
			return lvl
		}
	}
	if verbose {
		return log.DebugLevel
	}
	return log.InfoLevel
}

// New builds a logger from opts without touching the global default.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	l := log.NewWithOptions(out, log.Options{
		Prefix:          branding.CLIName(),
		ReportTimestamp: false,
		Level:           ResolveLevel(opts.Verbose),
	})
	return l
}

// Setup installs a logger built from opts as the global default.
func Setup(opts Options) *log.Logger {
	l := New(opts)
	log.SetDefault(l)
	return l
}
