package scaffold

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
)

const templateExt = ".tmpl"

// skipDirs are never copied out of a template source.
var skipDirs = map[string]bool{
	".git": true,
}

// renderTree writes the rendered form of src into dst and returns the
// number of files written.
func renderTree(ctx context.Context, src, dst string, vars map[string]string) (int, error) {
	count := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(dst, 0o755)
		}
		if d.IsDir() && skipDirs[d.Name()] {
			return filepath.SkipDir
		}

		outRel, err := renderPath(rel, vars)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, outRel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(out, info.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(target, out)
		case strings.HasSuffix(out, templateExt):
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rendered, err := execute(rel, string(data), vars)
			if err != nil {
				return err
			}
			out = strings.TrimSuffix(out, templateExt)
			if err := os.WriteFile(out, rendered, info.Mode().Perm()); err != nil {
				return errors.Wrapf(err, "writing %s", out)
			}
		default:
			if err := copyFile(path, out, info.Mode().Perm()); err != nil {
				return err
			}
		}
		count++
		return nil
	})
	if err != nil {
		return count, errors.Wrap(err, "rendering template")
	}
	return count, nil
}

// renderPath expands {{ }} expressions in a relative path.
func renderPath(rel string, vars map[string]string) (string, error) {
	if !strings.Contains(rel, "{{") {
		return rel, nil
	}
	out, err := execute(rel, rel, vars)
	if err != nil {
		return "", err
	}
	rendered := filepath.Clean(string(out))
	if rendered == "." || strings.HasPrefix(rendered, "..") || filepath.IsAbs(rendered) {
		return "", errors.Newf("path %q renders outside the project: %q", rel, rendered)
	}
	return rendered, nil
}

func execute(name, text string, vars map[string]string) ([]byte, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=zero").
		Parse(text)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing template %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, errors.Wrapf(err, "executing template %s", name)
	}
	return buf.Bytes(), nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, "reading %s", src)
	}
	if err := os.WriteFile(dst, data, perm); err != nil {
		return errors.Wrapf(err, "writing %s", dst)
	}
	return nil
}
