package templates

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	errUtils "github.com/sripwoud/cza/errors"
)

//go:embed templates.toml
var embeddedRegistry []byte

// Descriptor describes one generatable template.
type Descriptor struct {
	Name        string   `toml:"name" json:"name"`
	Title       string   `toml:"title" json:"title"`
	Description string   `toml:"description" json:"description"`
	Source      string   `toml:"source" json:"source"`
	Tags        []string `toml:"tags" json:"tags"`
}

// NotFoundError is returned by Lookup for an unregistered name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.Name)
}

// Is makes errors.Is(err, errUtils.ErrTemplateNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == errUtils.ErrTemplateNotFound
}

// Registry is an immutable, ordered set of descriptors.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

type document struct {
	Templates []Descriptor `toml:"template"`
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the registry built from the embedded templates.toml. It is
// parsed once per process.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Load(embeddedRegistry)
	})
	return defaultReg, defaultErr
}

// Load parses and validates a registry document.
func Load(data []byte) (*Registry, error) {
	issues, err := validateDocument(data)
	if err != nil {
		return nil, errors.Wrapf(errUtils.ErrRegistryLoad, "%v", err)
	}
	if len(issues) > 0 {
		msgs := make([]string, len(issues))
		for i, issue := range issues {
			msgs[i] = issue.String()
		}
		return nil, errors.Wrapf(errUtils.ErrRegistryLoad, "schema violations: %s", strings.Join(msgs, "; "))
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(errUtils.ErrRegistryLoad, "parsing registry: %v", err)
	}
	return New(doc.Templates...)
}

// New builds a registry from descriptors in the given order. Names must be
// unique and every descriptor must pass Validate.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		order:  make([]string, 0, len(descs)),
		byName: make(map[string]Descriptor, len(descs)),
	}
	for _, d := range descs {
		if _, dup := r.byName[d.Name]; dup {
			return nil, errors.Wrapf(errUtils.ErrRegistryLoad, "duplicate template %q", d.Name)
		}
		if err := Validate(d); err != nil {
			return nil, err
		}
		d.Tags = append([]string(nil), d.Tags...)
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// List returns every descriptor in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.get(name))
	}
	return out
}

// Names returns the registered template names in order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Lookup finds a template by exact name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	if _, ok := r.byName[name]; !ok {
		return Descriptor{}, errors.WithHint(
			&NotFoundError{Name: name},
			"Run 'cza list' to see available templates",
		)
	}
	return r.get(name), nil
}

// get returns a copy so callers cannot mutate the registry through Tags.
func (r *Registry) get(name string) Descriptor {
	d := r.byName[name]
	d.Tags = append([]string(nil), d.Tags...)
	return d
}

// Validate checks that a descriptor can be fetched: it needs a name and a
// git or https source.
func Validate(d Descriptor) error {
	if d.Name == "" {
		return errors.Wrap(errUtils.ErrInvalidTemplate, "name cannot be empty")
	}
	if d.Source == "" {
		return errors.Wrapf(errUtils.ErrInvalidTemplate, "%s: source cannot be empty", d.Name)
	}
	if !isGitSource(d.Source) {
		return errors.Wrapf(errUtils.ErrInvalidTemplate, "%s: source must be a git or https URL, got %q", d.Name, d.Source)
	}
	return nil
}

func isGitSource(src string) bool {
	switch {
	case strings.HasPrefix(src, "git::"),
		strings.HasPrefix(src, "git@"),
		strings.HasPrefix(src, "https://"),
		strings.HasPrefix(src, "github.com/"):
		return true
	}
	return false
}
