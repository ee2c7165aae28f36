package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"

	errUtils "github.com/sripwoud/cza/errors"
)

// writeTree creates files under root from a path->content map.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

var testVars = map[string]string{
	"project_name": "demo",
	"author":       "Alice",
}

func sampleTemplate(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"package.json.tmpl":             `{"name": "{{ .project_name }}", "author": "{{ .author | upper }}"}`,
		"README.md":                     "# {{ .project_name }} stays literal\n",
		"circuits/{{.project_name}}.nr": "fn main() {}\n",
		".git/HEAD":                     "ref: refs/heads/main\n",
		"src/missing.txt.tmpl":          "[{{ .nope }}]",
	})
	return src
}

func TestRenderLocalSource(t *testing.T) {
	src := sampleTemplate(t)
	dest := filepath.Join(t.TempDir(), "demo")

	if err := New().Render(context.Background(), src, dest, testVars); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if got := readFile(t, filepath.Join(dest, "package.json")); got != `{"name": "demo", "author": "ALICE"}` {
		t.Errorf("package.json = %q", got)
	}
	if got := readFile(t, filepath.Join(dest, "README.md")); got != "# {{ .project_name }} stays literal\n" {
		t.Errorf("README.md was rendered: %q", got)
	}
	if _, err := os.Stat(filepath.Join(dest, "circuits", "demo.nr")); err != nil {
		t.Errorf("templated path not rendered: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, ".git")); !os.IsNotExist(err) {
		t.Errorf(".git should not be copied, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "package.json.tmpl")); !os.IsNotExist(err) {
		t.Error(".tmpl suffix should be stripped")
	}
	if got := readFile(t, filepath.Join(dest, "src", "missing.txt")); got != "[]" {
		t.Errorf("missing variable should render empty, got %q", got)
	}

	// No staging directories are left beside the project.
	entries, err := os.ReadDir(filepath.Dir(dest))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("parent has %d entries, want only the project", len(entries))
	}
}

func TestRenderMergesIntoExistingDir(t *testing.T) {
	src := sampleTemplate(t)
	dest := t.TempDir()
	writeTree(t, dest, map[string]string{
		"NOTES.md":  "keep me",
		"README.md": "old",
	})

	if err := New().Render(context.Background(), src, dest, testVars); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if got := readFile(t, filepath.Join(dest, "NOTES.md")); got != "keep me" {
		t.Errorf("unrelated file changed: %q", got)
	}
	if got := readFile(t, filepath.Join(dest, "README.md")); got == "old" {
		t.Error("README.md should be overwritten by the template")
	}
}

func TestRenderFetchFailure(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "demo")
	r := New(WithFetch(func(context.Context, string, string) error {
		return errors.New("connection refused")
	}))

	err := r.Render(context.Background(), "git::https://example.invalid/x.git", dest, testVars)
	if !errors.Is(err, errUtils.ErrRenderFailed) {
		t.Fatalf("error = %v, want ErrRenderFailed", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination should not exist after a failed render")
	}
}

func TestRenderTemplateErrorLeavesDestination(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"ok.txt":       "fine",
		"bad.txt.tmpl": "{{ .project_name ",
	})
	dest := filepath.Join(t.TempDir(), "demo")

	err := New().Render(context.Background(), src, dest, testVars)
	if !errors.Is(err, errUtils.ErrRenderFailed) {
		t.Fatalf("error = %v, want ErrRenderFailed", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination should not exist after a failed render")
	}
}

func TestRenderCancelled(t *testing.T) {
	src := sampleTemplate(t)
	dest := filepath.Join(t.TempDir(), "demo")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(WithFetch(func(_ context.Context, _ string, dst string) error {
		return os.Symlink(src, dst)
	}))
	if err := r.Render(ctx, src, dest, testVars); !errors.Is(err, errUtils.ErrRenderFailed) {
		t.Fatalf("error = %v, want ErrRenderFailed", err)
	}
}

func TestRenderPathEscape(t *testing.T) {
	if _, err := renderPath("{{ .project_name }}", map[string]string{"project_name": "../x"}); err == nil {
		t.Error("expected escaping path to be rejected")
	}
	got, err := renderPath("a/{{ .project_name }}/b", testVars)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join("a", "demo", "b") {
		t.Errorf("renderPath = %q", got)
	}
}

func TestPlaceRestoresDestinationOnFailedMerge(t *testing.T) {
	parent := t.TempDir()
	dest := filepath.Join(parent, "demo")
	writeTree(t, dest, map[string]string{
		"a.txt":          "mine",
		"conflict/x.txt": "kept",
	})
	staged := t.TempDir()
	writeTree(t, staged, map[string]string{
		"a.txt":    "new",
		"conflict": "a file where a directory exists",
	})

	if err := place(staged, dest); err == nil {
		t.Fatal("expected merge over a directory to fail")
	}
	if got := readFile(t, filepath.Join(dest, "a.txt")); got != "mine" {
		t.Errorf("a.txt = %q, want original content", got)
	}
	if got := readFile(t, filepath.Join(dest, "conflict", "x.txt")); got != "kept" {
		t.Errorf("conflict/x.txt = %q", got)
	}
	assertNoBackups(t, parent)
}

func TestPlaceMergeKeepsExtraFiles(t *testing.T) {
	parent := t.TempDir()
	dest := filepath.Join(parent, "demo")
	writeTree(t, dest, map[string]string{"notes.txt": "mine"})
	staged := t.TempDir()
	writeTree(t, staged, map[string]string{"README.md": "# demo"})

	if err := place(staged, dest); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(dest, "notes.txt")); got != "mine" {
		t.Errorf("notes.txt = %q", got)
	}
	if got := readFile(t, filepath.Join(dest, "README.md")); got != "# demo" {
		t.Errorf("README.md = %q", got)
	}
	assertNoBackups(t, parent)
}

func assertNoBackups(t *testing.T, parent string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(parent, ".cza-backup-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("backup directories left behind: %v", matches)
	}
}
