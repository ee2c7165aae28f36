package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/branding"
	"github.com/sripwoud/cza/internal/generate"
	"github.com/sripwoud/cza/internal/pipeline"
	"github.com/sripwoud/cza/internal/planner"
	"github.com/sripwoud/cza/internal/ui"
)

var (
	newNoGit     bool
	newDryRun    bool
	newForce     bool
	newOutputDir string
	newAuthor    string
	newVars      []string
)

func init() {
	newCmd.Flags().BoolVar(&newNoGit, "no-git", false, "Skip git repository initialization")
	newCmd.Flags().BoolVar(&newDryRun, "dry-run", false, "Print the plan without writing anything")
	newCmd.Flags().BoolVarP(&newForce, "force", "f", false, "Generate into a non-empty directory without asking")
	newCmd.Flags().StringVarP(&newOutputDir, "output-dir", "o", "", "Parent directory for the project (default: current directory)")
	newCmd.Flags().StringVar(&newAuthor, "author", "", "Author name (default: user.author, then git user.name)")
	newCmd.Flags().StringArrayVar(&newVars, "var", nil, "Template variable as key=value (repeatable)")
	rootCmd.AddCommand(newCmd)
}

var newCmd = &cobra.Command{
	Use:   "new [template] <project-name>",
	Short: "Create a project from a template",
	Long: `Render a template into a new project directory, then run the
post-generation steps enabled in the configuration.

When the template is omitted, user.default_template is used.

Examples:
  ` + branding.CLIName() + ` new noir-vite my-circuit
  ` + branding.CLIName() + ` new cairo-vite game --no-git --var network=sepolia
  ` + branding.CLIName() + ` new noir-vite demo --dry-run`,
	Args: usageArgs(cobra.RangeArgs(1, 2)),
	RunE: runNew,
}

func runNew(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := newRequest(args)
	if err != nil {
		return err
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	pr := newPrinter(cmd)
	steps := pipeline.New(newExecutor(), pipeline.WithObserver(ui.NewObserver(cmd.ErrOrStderr())))
	gen := generate.New(planner.New(reg), newRenderer(), steps)

	result, err := generateWithConfirm(ctx, gen, pr, req)
	if err != nil {
		return err
	}

	if result.Plan.DryRun() {
		pr.PrintPlan(result.Plan)
		return nil
	}
	pr.PrintReport(result.Report)
	pr.PrintNextSteps(result.Plan)
	return nil
}

// generateWithConfirm asks before writing into a non-empty destination and
// retries with the answer recorded on the request.
func generateWithConfirm(ctx context.Context, gen *generate.Generator, pr *ui.Printer, req planner.Request) (*generate.Result, error) {
	result, err := gen.Generate(ctx, req, cfg)
	if err == nil || !errors.Is(err, errUtils.ErrDestinationExists) || req.Flags.DryRun {
		return result, err
	}

	dest, absErr := filepath.Abs(req.DestinationPath)
	if absErr != nil || !isDir(dest) {
		return nil, err
	}
	ok, promptErr := pr.ConfirmOverwrite(dest)
	if promptErr != nil {
		return nil, promptErr
	}
	if !ok {
		return nil, err
	}

	log.Debug("Overwrite confirmed", "destination", dest)
	req.Flags.Confirmed = true
	return gen.Generate(ctx, req, cfg)
}

func newRequest(args []string) (planner.Request, error) {
	req := planner.Request{
		Flags: planner.Flags{
			NoGit:  newNoGit,
			DryRun: newDryRun,
			Force:  newForce,
		},
	}
	if len(args) == 2 {
		req.TemplateName, req.ProjectName = args[0], args[1]
	} else {
		req.ProjectName = args[0]
	}

	if newOutputDir != "" {
		req.DestinationPath = filepath.Join(newOutputDir, req.ProjectName)
	} else {
		req.DestinationPath = req.ProjectName
	}

	vars, err := parseVars(newVars)
	if err != nil {
		return req, err
	}
	if newAuthor != "" {
		vars[planner.VarAuthor] = newAuthor
	}
	req.Variables = vars
	return req, nil
}

// parseVars turns repeated key=value flags into a map. Later keys win.
func parseVars(raw []string) (map[string]string, error) {
	vars := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.WithHint(
				errors.Wrapf(errUtils.ErrInvalidUsage, "--var %q", kv),
				"Use --var key=value",
			)
		}
		vars[key] = value
	}
	return vars, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
