package generate

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/config"
	"github.com/sripwoud/cza/internal/pipeline"
	"github.com/sripwoud/cza/internal/planner"
	"github.com/sripwoud/cza/internal/scaffold"
)

// Planner computes a plan for a request.
type Planner interface {
	Plan(req planner.Request, cfg config.Configuration) (*planner.Plan, error)
}

// StepRunner runs the post-generation steps of a plan.
type StepRunner interface {
	Run(ctx context.Context, plan *planner.Plan) *pipeline.Report
}

// Result is what a generation produced. Report is empty when the plan was
// only displayed or rendering failed.
type Result struct {
	Plan     *planner.Plan
	Report   *pipeline.Report
	Rendered bool
}

// Generator runs plan, render, and pipeline in that order.
type Generator struct {
	planner  Planner
	renderer scaffold.Renderer
	steps    StepRunner
}

// New returns a Generator.
func New(p Planner, r scaffold.Renderer, steps StepRunner) *Generator {
	return &Generator{planner: p, renderer: r, steps: steps}
}

// Generate plans req, stops there for a dry run, renders the template, and
// runs the remaining steps. The returned error reflects planning and
// rendering only; step failures are in the report.
func (g *Generator) Generate(ctx context.Context, req planner.Request, cfg config.Configuration) (*Result, error) {
	plan, err := g.planner.Plan(req, cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{Plan: plan, Report: &pipeline.Report{}}
	if plan.DryRun() {
		log.Debug("Dry run, skipping render", "destination", plan.Destination())
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		result.Report.Interrupted = true
		return result, errors.Wrap(err, "generation cancelled")
	}

	tmpl := plan.Template()
	log.Debug("Rendering", "template", tmpl.Name, "source", tmpl.Source, "destination", plan.Destination())
	if err := g.renderer.Render(ctx, tmpl.Source, plan.Destination(), plan.Variables()); err != nil {
		if !errors.Is(err, errUtils.ErrRenderFailed) {
			err = errors.Wrapf(errUtils.ErrRenderFailed, "%v", err)
		}
		return result, err
	}
	result.Rendered = true

	result.Report = g.steps.Run(ctx, plan)
	return result, nil
}
