package planner

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/config"
	"github.com/sripwoud/cza/internal/templates"
)

// Template variable names always present in a plan.
const (
	VarProjectName = "project_name"
	VarAuthor      = "author"
	VarEmail       = "email"
)

const (
	defaultEditor = "code"
	defaultAuthor = "Developer"
)

var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Identity supplies fallback author details, normally from git config.
type Identity func() (name, email string)

// Planner computes plans against a template registry and a filesystem.
type Planner struct {
	registry *templates.Registry
	fs       afero.Fs
	identity Identity
	getenv   func(string) string
	workDir  string
}

// Option configures a Planner.
type Option func(*Planner)

// WithFs sets the filesystem used for the destination check.
func WithFs(fs afero.Fs) Option {
	return func(p *Planner) { p.fs = fs }
}

// WithIdentity sets the author/email fallback.
func WithIdentity(id Identity) Option {
	return func(p *Planner) { p.identity = id }
}

// WithGetenv sets the environment lookup used to resolve the editor.
func WithGetenv(getenv func(string) string) Option {
	return func(p *Planner) { p.getenv = getenv }
}

// WithWorkDir sets the directory relative destinations resolve against.
func WithWorkDir(dir string) Option {
	return func(p *Planner) { p.workDir = dir }
}

// New returns a Planner backed by the OS filesystem and the global git
// identity unless overridden.
func New(registry *templates.Registry, opts ...Option) *Planner {
	p := &Planner{
		registry: registry,
		fs:       afero.NewOsFs(),
		identity: GitIdentity,
		getenv:   os.Getenv,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan validates req against cfg and the filesystem and returns the steps to
// execute. It has no side effects.
func (p *Planner) Plan(req Request, cfg config.Configuration) (*Plan, error) {
	name := req.TemplateName
	if name == "" {
		name = cfg.User.DefaultTemplate
	}
	if name == "" {
		return nil, errors.WithHint(
			errUtils.ErrNoTemplateSpecified,
			"Pass a template name or run 'cza config set user.default_template <name>'",
		)
	}

	tmpl, err := p.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	if !projectNamePattern.MatchString(req.ProjectName) {
		return nil, errors.WithHint(
			errors.Wrapf(errUtils.ErrInvalidProjectName, "%q", req.ProjectName),
			"Use only letters, digits, '-' and '_'",
		)
	}

	dest, err := p.destination(req)
	if err != nil {
		return nil, err
	}

	overwrite, err := p.checkDestination(dest, req.Flags, cfg)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		template:    tmpl,
		projectName: req.ProjectName,
		destination: dest,
		variables:   p.variables(req, cfg),
		steps:       buildSteps(req.Flags, cfg),
		editor:      p.editor(cfg),
		dryRun:      req.Flags.DryRun,
		overwrite:   overwrite,
	}

	log.Debug("Planned generation",
		"template", tmpl.Name,
		"destination", dest,
		"dry_run", plan.dryRun,
		"overwrite", overwrite,
	)
	return plan, nil
}

func (p *Planner) destination(req Request) (string, error) {
	dest := req.DestinationPath
	if dest == "" {
		dest = req.ProjectName
	}
	if filepath.IsAbs(dest) {
		return filepath.Clean(dest), nil
	}

	base := p.workDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "resolving working directory")
		}
		base = wd
	}
	return filepath.Join(base, dest), nil
}

// checkDestination enforces overwrite safety. It reports whether dest
// already exists as a directory.
func (p *Planner) checkDestination(dest string, flags Flags, cfg config.Configuration) (bool, error) {
	info, err := p.fs.Stat(dest)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "checking destination %s", dest)
	}

	if !info.IsDir() {
		return false, errors.WithHint(
			errors.Wrapf(errUtils.ErrDestinationExists, "%s is not a directory", dest),
			"Choose another project name or --output-dir",
		)
	}

	empty, err := afero.IsEmpty(p.fs, dest)
	if err != nil {
		return false, errors.Wrapf(err, "reading destination %s", dest)
	}
	if empty {
		return true, nil
	}

	if flags.Force || flags.Confirmed || !cfg.Development.ConfirmOverwrite {
		return true, nil
	}
	return false, errors.WithHint(
		errors.Wrapf(errUtils.ErrDestinationExists, "%s is not empty", dest),
		"Pass --force to write into it anyway",
	)
}

func (p *Planner) variables(req Request, cfg config.Configuration) map[string]string {
	vars := make(map[string]string, len(req.Variables)+3)
	for k, v := range req.Variables {
		vars[k] = v
	}
	vars[VarProjectName] = req.ProjectName

	author, email := vars[VarAuthor], vars[VarEmail]
	if author == "" {
		author = cfg.User.Author
	}
	if email == "" {
		email = cfg.User.Email
	}
	if (author == "" || email == "") && p.identity != nil {
		gitName, gitEmail := p.identity()
		if author == "" {
			author = gitName
		}
		if email == "" {
			email = gitEmail
		}
	}
	if author == "" {
		author = defaultAuthor
	}
	vars[VarAuthor] = author
	vars[VarEmail] = email
	return vars
}

func (p *Planner) editor(cfg config.Configuration) string {
	if cfg.PostGeneration.Editor != "" {
		return cfg.PostGeneration.Editor
	}
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := p.getenv(env); v != "" {
			return v
		}
	}
	return defaultEditor
}

func buildSteps(flags Flags, cfg config.Configuration) []Step {
	steps := make([]Step, 0, len(stepOrder))
	for _, kind := range stepOrder {
		steps = append(steps, stepFor(kind, flags, cfg))
	}
	return steps
}

func stepFor(kind StepKind, flags Flags, cfg config.Configuration) Step {
	switch kind {
	case StepRender:
		return Step{Kind: kind, Enabled: true, Rationale: "always runs first"}
	case StepGitInit:
		switch {
		case flags.NoGit:
			return Step{Kind: kind, Rationale: "disabled by --no-git"}
		case !cfg.User.GitInit:
			return Step{Kind: kind, Rationale: "disabled by user.git_init"}
		}
		return Step{Kind: kind, Enabled: true, Rationale: "user.git_init is enabled"}
	case StepInstallDeps:
		return toggle(kind, cfg.PostGeneration.AutoInstallDeps, "post_generation.auto_install_deps")
	case StepSetupHooks:
		return toggle(kind, cfg.PostGeneration.AutoSetupHooks, "post_generation.auto_setup_hooks")
	case StepOpenEditor:
		return toggle(kind, cfg.PostGeneration.OpenEditor, "post_generation.open_editor")
	}
	return Step{Kind: kind, Rationale: "unknown step"}
}

func toggle(kind StepKind, enabled bool, key string) Step {
	if enabled {
		return Step{Kind: kind, Enabled: true, Rationale: key + " is enabled"}
	}
	return Step{Kind: kind, Rationale: "disabled by " + key}
}
