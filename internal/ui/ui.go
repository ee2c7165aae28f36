package ui

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sripwoud/cza/internal/pipeline"
	"github.com/sripwoud/cza/internal/planner"
	"github.com/sripwoud/cza/internal/templates"
)

// Printer writes command output. Status lines go to Out, progress to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer

	// Interactive reports whether questions may be asked. It defaults to
	// whether stdin and stdout are terminals.
	Interactive bool

	// confirm is swapped out in tests.
	confirm func(title string) (bool, error)
	p       *message.Printer
}

// New returns a Printer writing to out and errOut.
func New(out, errOut io.Writer) *Printer {
	return &Printer{
		Out:         out,
		Err:         errOut,
		Interactive: IsTerminal(),
		confirm:     askConfirm,
		p:           message.NewPrinter(language.English),
	}
}

// IsTerminal reports whether both stdin and stdout are attached to a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// ConfirmOverwrite asks whether to write into the existing directory dest.
// Without a terminal it answers no.
func (pr *Printer) ConfirmOverwrite(dest string) (bool, error) {
	if !pr.Interactive {
		return false, nil
	}
	return pr.confirm(fmt.Sprintf("%s is not empty. Generate into it anyway?", dest))
}

func askConfirm(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "prompting for confirmation")
	}
	return ok, nil
}

// PrintPlan shows what a generation would do.
func (pr *Printer) PrintPlan(plan *planner.Plan) {
	tmpl := plan.Template()
	fmt.Fprintln(pr.Out, titleStyle.Render("Plan for "+plan.ProjectName()))
	fmt.Fprintf(pr.Out, "  template:    %s (%s)\n", tmpl.Name, tmpl.Source)
	fmt.Fprintf(pr.Out, "  destination: %s\n", plan.Destination())
	if plan.Overwrite() {
		fmt.Fprintln(pr.Out, "  "+skipStyle.Render("existing directory will be written into"))
	}

	vars := plan.Variables()
	if len(vars) > 0 {
		fmt.Fprintln(pr.Out, "  variables:")
		w := tabwriter.NewWriter(pr.Out, 0, 0, 2, ' ', 0)
		for _, k := range sortedKeys(vars) {
			fmt.Fprintf(w, "    %s\t%s\n", k, vars[k])
		}
		w.Flush()
	}

	fmt.Fprintln(pr.Out, "  steps:")
	w := tabwriter.NewWriter(pr.Out, 0, 0, 2, ' ', 0)
	for _, s := range plan.Steps() {
		mark := successStyle.Render(markOK)
		if !s.Enabled {
			mark = mutedStyle.Render(markSkip)
		}
		fmt.Fprintf(w, "    %s %s\t%s\n", mark, s.Kind, mutedStyle.Render(s.Rationale))
	}
	w.Flush()
}

// PrintReport summarizes a pipeline run, including the hint of every
// failed step.
func (pr *Printer) PrintReport(report *pipeline.Report) {
	if len(report.Outcomes) == 0 && !report.Interrupted {
		return
	}
	for _, o := range report.Failed() {
		fmt.Fprintf(pr.Err, "%s %s: %s\n", failStyle.Render(markFail), o.Step.Kind, o.Reason)
		if o.Hint != "" {
			fmt.Fprintln(pr.Err, mutedStyle.Render("  hint: "+o.Hint))
		}
	}

	summary := pr.p.Sprintf("%d succeeded, %d failed, %d skipped",
		report.Count(pipeline.StatusSucceeded),
		report.Count(pipeline.StatusFailed),
		report.Count(pipeline.StatusSkipped),
	)
	if report.Interrupted {
		summary += " (interrupted)"
	}
	fmt.Fprintln(pr.Out, mutedStyle.Render("Setup: "+summary))
}

// PrintNextSteps tells the user how to start working on the project.
func (pr *Printer) PrintNextSteps(plan *planner.Plan) {
	fmt.Fprintln(pr.Out, successStyle.Render(markOK)+" Created "+titleStyle.Render(plan.ProjectName()))
	fmt.Fprintln(pr.Out)
	fmt.Fprintln(pr.Out, "Next steps:")
	fmt.Fprintf(pr.Out, "  cd %s\n", plan.Destination())
	fmt.Fprintln(pr.Out, "  mise run dev")
}

// PrintTemplates lists descriptors as a table.
func (pr *Printer) PrintTemplates(descs []templates.Descriptor, detailed bool) error {
	if len(descs) == 0 {
		fmt.Fprintln(pr.Out, "No templates available.")
		return nil
	}

	w := tabwriter.NewWriter(pr.Out, 0, 0, 3, ' ', 0)
	if detailed {
		fmt.Fprintln(w, "NAME\tTITLE\tTAGS\tSOURCE")
		for _, d := range descs {
			tags := strings.Join(d.Tags, ",")
			if tags == "" {
				tags = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Title, tags, d.Source)
		}
	} else {
		fmt.Fprintln(w, "NAME\tDESCRIPTION")
		for _, d := range descs {
			fmt.Fprintf(w, "%s\t%s\n", d.Name, d.Description)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(pr.Out, mutedStyle.Render(pr.p.Sprintf("%d templates", len(descs))))
	return nil
}

// Observer prints a line per step as the pipeline runs.
type Observer struct {
	w io.Writer
}

// NewObserver returns an Observer writing to w.
func NewObserver(w io.Writer) *Observer {
	return &Observer{w: w}
}

// StepStarted implements pipeline.Observer.
func (o *Observer) StepStarted(step planner.Step) {
	fmt.Fprintf(o.w, "%s %s\n", mutedStyle.Render(markRun), step.Kind)
}

// StepFinished implements pipeline.Observer.
func (o *Observer) StepFinished(outcome pipeline.StepOutcome) {
	switch outcome.Status {
	case pipeline.StatusSucceeded:
		fmt.Fprintf(o.w, "%s %s %s\n", successStyle.Render(markOK), outcome.Step.Kind,
			mutedStyle.Render("("+outcome.Duration.Round(time.Millisecond).String()+")"))
	case pipeline.StatusFailed:
		fmt.Fprintf(o.w, "%s %s\n", failStyle.Render(markFail), outcome.Step.Kind)
	default:
		fmt.Fprintf(o.w, "%s %s %s\n", skipStyle.Render(markSkip), outcome.Step.Kind, mutedStyle.Render("skipped"))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
