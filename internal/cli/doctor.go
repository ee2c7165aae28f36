package cli

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/shell"

	"github.com/sripwoud/cza/internal/branding"
)

var doctorTools = []struct {
	name string
	use  string
}{
	{"git", "version control (git init uses a built-in implementation)"},
	{"mise", "post_generation.auto_install_deps"},
	{"hk", "post_generation.auto_setup_hooks"},
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment " + branding.CLIName() + " depends on",
	Long: `Run diagnostic checks: external tools used by the post-generation
steps, the configuration file, and the built-in template registry.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failures := 0

		fmt.Fprintln(out, "Tools:")
		for _, tool := range doctorTools {
			checkBinary(out, tool.name, tool.use)
		}
		if !checkEditor(out) {
			failures++
		}

		fmt.Fprintln(out, "Configuration:")
		if _, err := store.Load(); err != nil {
			fmt.Fprintf(out, "  [FAIL] %s: %v\n", store.Path(), err)
			failures++
		} else {
			fmt.Fprintf(out, "  [ OK ] %s\n", store.Path())
		}

		fmt.Fprintln(out, "Templates:")
		reg, err := loadRegistry()
		if err != nil {
			fmt.Fprintf(out, "  [FAIL] %v\n", err)
			failures++
		} else {
			fmt.Fprintf(out, "  [ OK ] %d templates registered\n", len(reg.Names()))
			if name := cfg.User.DefaultTemplate; name != "" {
				if _, err := reg.Lookup(name); err != nil {
					fmt.Fprintf(out, "  [FAIL] user.default_template: %v\n", err)
					failures++
				}
			}
		}

		if failures > 0 {
			return errors.Newf("doctor found %d problem(s)", failures)
		}
		return nil
	},
}

func checkBinary(w io.Writer, name, use string) {
	path, err := lookPath(name)
	if err != nil {
		fmt.Fprintf(w, "  [MISS] %s not found (%s)\n", name, use)
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s found at %s\n", name, path)
}

// checkEditor reports false when the configured editor command is unusable.
func checkEditor(w io.Writer) bool {
	if !cfg.PostGeneration.OpenEditor {
		return true
	}
	editor := cfg.PostGeneration.Editor
	if editor == "" {
		fmt.Fprintln(w, "  [INFO] editor resolved from $VISUAL/$EDITOR at generation time")
		return true
	}
	fields, err := shell.Fields(editor, nil)
	if err != nil || len(fields) == 0 {
		fmt.Fprintf(w, "  [FAIL] post_generation.editor %q cannot be parsed\n", editor)
		return false
	}
	checkBinary(w, fields[0], "post_generation.open_editor")
	return true
}
