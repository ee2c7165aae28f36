package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/pipeline"
	"github.com/sripwoud/cza/internal/planner"
	"github.com/sripwoud/cza/internal/scaffold"
)

type fakeRenderer struct {
	calls int
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, _, dest string, vars map[string]string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, "README.md"), []byte("# "+vars[planner.VarProjectName]), 0o644)
}

type fakeExecutor struct {
	ran  []planner.StepKind
	fail map[planner.StepKind]error
}

func (f *fakeExecutor) Execute(_ context.Context, _ *planner.Plan, step planner.Step) error {
	f.ran = append(f.ran, step.Kind)
	return f.fail[step.Kind]
}

// testEnv isolates config, git identity, and collaborators for one test.
type testEnv struct {
	configPath string
	workDir    string
	renderer   *fakeRenderer
	executor   *fakeExecutor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		configPath: filepath.Join(t.TempDir(), "config.toml"),
		workDir:    t.TempDir(),
		renderer:   &fakeRenderer{},
		executor:   &fakeExecutor{},
	}
	t.Setenv("CZA_CONFIG", env.configPath)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, name := range []string{"CZA_LOG", "CZA_MIRROR", "CZA_USER_DEFAULT_TEMPLATE", "CZA_USER_AUTHOR", "VISUAL", "EDITOR"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	prevRenderer, prevExecutor := newRenderer, newExecutor
	newRenderer = func() scaffold.Renderer { return env.renderer }
	newExecutor = func() pipeline.Executor { return env.executor }
	t.Cleanup(func() {
		newRenderer, newExecutor = prevRenderer, prevExecutor
	})
	return env
}

// run executes the root command and restores every flag afterwards.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	defer resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = Execute("1.0.0", "abc123", "2026-01-01")
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestVersion(t *testing.T) {
	newTestEnv(t)

	out, _, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0\n", out)

	out, _, err = run(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.0.0", info["version"])
	assert.Equal(t, "abc123", info["commit"])

	out, _, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cza version 1.0.0")
}

func TestList(t *testing.T) {
	newTestEnv(t)

	out, _, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "noir-vite")
	assert.Contains(t, out, "cairo-vite")

	out, _, err = run(t, "list", "--json")
	require.NoError(t, err)
	var descs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &descs))
	require.NotEmpty(t, descs)
	assert.Equal(t, "noir-vite", descs[0]["name"])

	out, _, err = run(t, "list", "--detailed")
	require.NoError(t, err)
	assert.Contains(t, out, "SOURCE")
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, env.configPath+"\n", out)

	out, _, err = run(t, "config", "get", "user.author")
	require.NoError(t, err)
	assert.Equal(t, notSet+"\n", out)

	_, _, err = run(t, "config", "set", "user.author", "Ada Lovelace")
	require.NoError(t, err)
	out, _, err = run(t, "config", "get", "user.author")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace\n", out)

	out, _, err = run(t, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "user.author = Ada Lovelace")
	assert.Contains(t, out, "user.email = "+notSet)
	assert.Contains(t, out, "user.git_init = true")

	_, _, err = run(t, "config", "reset")
	require.NoError(t, err)
	out, _, err = run(t, "config", "get", "user.author")
	require.NoError(t, err)
	assert.Equal(t, notSet+"\n", out)
}

func TestConfigUsageErrors(t *testing.T) {
	newTestEnv(t)

	_, _, err := run(t, "config", "get", "user.nope")
	require.ErrorIs(t, err, errUtils.ErrUnknownConfigKey)
	assert.Equal(t, errUtils.ExitUsage, errUtils.GetExitCode(err))

	_, _, err = run(t, "config", "set", "user.git_init", "maybe")
	require.ErrorIs(t, err, errUtils.ErrInvalidConfigValue)
	assert.Equal(t, errUtils.ExitUsage, errUtils.GetExitCode(err))

	_, _, err = run(t, "config", "get")
	require.ErrorIs(t, err, errUtils.ErrInvalidUsage)
	assert.Equal(t, errUtils.ExitUsage, errUtils.GetExitCode(err))
}

func TestConfigResetRecoversMalformedFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.configPath, []byte("[user\nauthor ="), 0o644))

	_, _, err := run(t, "list")
	require.ErrorIs(t, err, errUtils.ErrConfigLoad)

	_, _, err = run(t, "config", "reset")
	require.NoError(t, err)

	_, _, err = run(t, "list")
	require.NoError(t, err)
}

func TestNewGeneratesProject(t *testing.T) {
	env := newTestEnv(t)
	env.executor.fail = map[planner.StepKind]error{
		planner.StepInstallDeps: errors.WithHint(errors.New("mise not found"), "Install mise"),
	}

	out, errOut, err := run(t, "new", "noir-vite", "demo", "--output-dir", env.workDir, "--var", "network=sepolia")
	require.NoError(t, err, "step failures do not fail the command")

	dest := filepath.Join(env.workDir, "demo")
	assert.FileExists(t, filepath.Join(dest, "README.md"))
	assert.Equal(t, 1, env.renderer.calls)
	assert.Equal(t, []planner.StepKind{planner.StepGitInit, planner.StepInstallDeps, planner.StepSetupHooks}, env.executor.ran)

	assert.Contains(t, out, "Next steps:")
	assert.Contains(t, out, "cd "+dest)
	assert.Contains(t, out, "mise run dev")
	assert.Contains(t, out, "2 succeeded, 1 failed, 1 skipped")
	assert.Contains(t, errOut, "install-deps: mise not found")
	assert.Contains(t, errOut, "hint: Install mise")
}

func TestNewNoGit(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := run(t, "new", "noir-vite", "demo", "-o", env.workDir, "--no-git")
	require.NoError(t, err)
	assert.NotContains(t, env.executor.ran, planner.StepGitInit)
}

func TestNewDryRun(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := run(t, "new", "noir-vite", "demo", "--output-dir", env.workDir, "--dry-run", "--author", "Grace")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan for demo")
	assert.Contains(t, out, "Grace")
	assert.NoDirExists(t, filepath.Join(env.workDir, "demo"))
	assert.Zero(t, env.renderer.calls)
	assert.Empty(t, env.executor.ran)
}

func TestNewDestinationExists(t *testing.T) {
	env := newTestEnv(t)
	dest := filepath.Join(env.workDir, "demo")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "keep.txt"), []byte("mine"), 0o644))

	_, _, err := run(t, "new", "noir-vite", "demo", "--output-dir", env.workDir)
	require.ErrorIs(t, err, errUtils.ErrDestinationExists)
	assert.Equal(t, errUtils.ExitFailure, errUtils.GetExitCode(err))
	assert.Zero(t, env.renderer.calls)

	data, readErr := os.ReadFile(filepath.Join(dest, "keep.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "mine", string(data))

	_, _, err = run(t, "new", "noir-vite", "demo", "--output-dir", env.workDir, "--force")
	require.NoError(t, err)
	assert.Equal(t, 1, env.renderer.calls)
}

func TestNewRenderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.renderer.err = errors.New("repository unreachable")

	_, _, err := run(t, "new", "noir-vite", "demo", "--output-dir", env.workDir)
	require.ErrorIs(t, err, errUtils.ErrRenderFailed)
	assert.Equal(t, errUtils.ExitFailure, errUtils.GetExitCode(err))
	assert.Empty(t, env.executor.ran)
}

func TestNewTemplateResolution(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := run(t, "new", "demo", "--output-dir", env.workDir)
	require.ErrorIs(t, err, errUtils.ErrNoTemplateSpecified)
	assert.Equal(t, errUtils.ExitUsage, errUtils.GetExitCode(err))

	_, _, err = run(t, "new", "solidity", "demo", "--output-dir", env.workDir)
	require.ErrorIs(t, err, errUtils.ErrTemplateNotFound)
	assert.Equal(t, errUtils.ExitUsage, errUtils.GetExitCode(err))

	t.Setenv("CZA_USER_DEFAULT_TEMPLATE", "cairo-vite")
	out, _, err := run(t, "new", "demo", "--output-dir", env.workDir, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "cairo-vite")
}

func TestNewUsageErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no args", []string{"new"}, errUtils.ErrInvalidUsage},
		{"too many args", []string{"new", "a", "b", "c"}, errUtils.ErrInvalidUsage},
		{"bad var", []string{"new", "noir-vite", "demo", "--var", "novalue"}, errUtils.ErrInvalidUsage},
		{"bad name", []string{"new", "noir-vite", "my app", "-o", env.workDir}, errUtils.ErrInvalidProjectName},
		{"unknown flag", []string{"new", "--shiny"}, errUtils.ErrInvalidUsage},
		{"unknown command", []string{"frobnicate"}, errUtils.ErrInvalidUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, errUtils.ExitUsage, errUtils.GetExitCode(err))
		})
	}
}

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"a=1", "b=x=y", "a=2", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "2", "b": "x=y", "empty": ""}, vars)

	_, err = parseVars([]string{"=1"})
	assert.ErrorIs(t, err, errUtils.ErrInvalidUsage)
}

func TestDoctor(t *testing.T) {
	newTestEnv(t)
	prev := lookPath
	lookPath = func(name string) (string, error) {
		if name == "hk" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	t.Cleanup(func() { lookPath = prev })

	out, _, err := run(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "[ OK ] git found at /usr/bin/git")
	assert.Contains(t, out, "[MISS] hk not found")
	assert.Contains(t, out, "templates registered")

	t.Setenv("CZA_USER_DEFAULT_TEMPLATE", "missing")
	out, _, err = run(t, "doctor")
	require.Error(t, err)
	assert.Contains(t, out, "user.default_template")
}
