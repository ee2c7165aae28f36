package planner

import (
	"maps"
	"slices"

	"github.com/sripwoud/cza/internal/templates"
)

// StepKind identifies one unit of generation work.
type StepKind string

const (
	StepRender      StepKind = "render"
	StepGitInit     StepKind = "git-init"
	StepInstallDeps StepKind = "install-deps"
	StepSetupHooks  StepKind = "setup-hooks"
	StepOpenEditor  StepKind = "open-editor"
)

// stepOrder is fixed. Configuration toggles Enabled, never the position.
var stepOrder = []StepKind{
	StepRender,
	StepGitInit,
	StepInstallDeps,
	StepSetupHooks,
	StepOpenEditor,
}

// StepKinds returns every step kind in execution order.
func StepKinds() []StepKind {
	return slices.Clone(stepOrder)
}

// Step is one entry of a plan.
type Step struct {
	Kind      StepKind `json:"kind"`
	Enabled   bool     `json:"enabled"`
	Rationale string   `json:"rationale"`
}

// Flags are the per-invocation switches of a request.
type Flags struct {
	NoGit  bool
	DryRun bool
	Force  bool
	// Confirmed records that the user already approved writing into an
	// existing non-empty destination.
	Confirmed bool
}

// Request is what the user asked for.
type Request struct {
	TemplateName    string
	ProjectName     string
	DestinationPath string
	Variables       map[string]string
	Flags           Flags
}

// Plan is the outcome of planning. It has no exported fields so nothing
// can change it after Plan returns.
type Plan struct {
	template    templates.Descriptor
	projectName string
	destination string
	variables   map[string]string
	steps       []Step
	editor      string
	dryRun      bool
	overwrite   bool
}

// Template returns the resolved template.
func (p *Plan) Template() templates.Descriptor { return p.template }

// ProjectName returns the validated project name.
func (p *Plan) ProjectName() string { return p.projectName }

// Destination returns the absolute destination directory.
func (p *Plan) Destination() string { return p.destination }

// Variables returns a copy of the template variables.
func (p *Plan) Variables() map[string]string { return maps.Clone(p.variables) }

// Steps returns a copy of the steps in execution order.
func (p *Plan) Steps() []Step { return slices.Clone(p.steps) }

// Step returns the step of the given kind.
func (p *Plan) Step(kind StepKind) (Step, bool) {
	for _, s := range p.steps {
		if s.Kind == kind {
			return s, true
		}
	}
	return Step{}, false
}

// Editor returns the command line used by the open-editor step.
func (p *Plan) Editor() string { return p.editor }

// DryRun reports whether the plan should only be displayed.
func (p *Plan) DryRun() bool { return p.dryRun }

// Overwrite reports whether the destination already exists and rendering
// will merge into it.
func (p *Plan) Overwrite() bool { return p.overwrite }
