package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/sripwoud/cza/internal/planner"
)

// Executor performs a single enabled step.
type Executor interface {
	Execute(ctx context.Context, plan *planner.Plan, step planner.Step) error
}

// Observer is told about each step as it starts and finishes.
type Observer interface {
	StepStarted(step planner.Step)
	StepFinished(outcome StepOutcome)
}

// Pipeline runs the post-generation steps of a plan.
type Pipeline struct {
	executor Executor
	observer Observer
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver reports progress to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New returns a Pipeline that runs steps through executor.
func New(executor Executor, opts ...Option) *Pipeline {
	p := &Pipeline{
		executor: executor,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every post-generation step of plan and never fails as a
// whole. Cancellation is checked before each step; an interrupted run
// returns the outcomes recorded so far.
func (p *Pipeline) Run(ctx context.Context, plan *planner.Plan) *Report {
	report := &Report{}

	for _, step := range plan.Steps() {
		if step.Kind == planner.StepRender {
			continue
		}
		if ctx.Err() != nil {
			log.Debug("Pipeline interrupted", "next_step", step.Kind)
			report.Interrupted = true
			break
		}

		var outcome StepOutcome
		if step.Enabled {
			outcome = p.execute(ctx, plan, step)
		} else {
			outcome = StepOutcome{Step: step, Status: StatusSkipped, Reason: SkippedReason}
		}
		report.Outcomes = append(report.Outcomes, outcome)
		if p.observer != nil {
			p.observer.StepFinished(outcome)
		}
	}

	return report
}

func (p *Pipeline) execute(ctx context.Context, plan *planner.Plan, step planner.Step) StepOutcome {
	if p.observer != nil {
		p.observer.StepStarted(step)
	}
	log.Debug("Running step", "step", step.Kind)

	// A running step is never interrupted; cancellation is observed by Run
	// before the next step.
	start := p.now()
	err := p.executor.Execute(context.WithoutCancel(ctx), plan, step)
	outcome := StepOutcome{Step: step, Duration: p.now().Sub(start)}

	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		outcome.Hint = strings.Join(errors.GetAllHints(err), "; ")
		log.Debug("Step failed", "step", step.Kind, "error", err)
		return outcome
	}
	outcome.Status = StatusSucceeded
	return outcome
}
