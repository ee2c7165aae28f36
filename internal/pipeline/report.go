package pipeline

import (
	"time"

	"github.com/sripwoud/cza/internal/planner"
)

// Status is the result of one step.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// SkippedReason is recorded for every disabled step.
const SkippedReason = "disabled by configuration/flag"

// StepOutcome records what happened to one step.
type StepOutcome struct {
	Step     planner.Step  `json:"step"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Hint     string        `json:"hint,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the ordered record of a pipeline run.
type Report struct {
	Outcomes []StepOutcome `json:"outcomes"`
	// Interrupted is set when cancellation stopped the run before every
	// step was considered.
	Interrupted bool `json:"interrupted"`
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the failed outcomes in order.
func (r *Report) Failed() []StepOutcome {
	var out []StepOutcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}
