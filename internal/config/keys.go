package config

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	errUtils "github.com/sripwoud/cza/errors"
)

// Kind is the declared type of a configuration key.
type Kind int

const (
	KindString Kind = iota
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Key describes one configuration key.
type Key struct {
	Name        string
	Kind        Kind
	Default     any
	Description string
}

// Section returns the table the key lives in (e.g. "user").
func (k Key) Section() string {
	section, _, _ := strings.Cut(k.Name, ".")
	return section
}

// Field returns the key name inside its table (e.g. "git_init").
func (k Key) Field() string {
	_, field, _ := strings.Cut(k.Name, ".")
	return field
}

// schema lists every known key in display order.
var schema = []Key{
	{"user.author", KindString, "", "Default author name for new projects"},
	{"user.email", KindString, "", "Default email for project metadata"},
	{"user.git_init", KindBool, true, "Initialize a git repository in new projects"},
	{"user.default_template", KindString, "", "Template used when none is given"},
	{"development.verbose", KindBool, false, "Enable debug logging"},
	{"development.color", KindBool, true, "Enable colored output"},
	{"development.confirm_overwrite", KindBool, true, "Ask before writing into a non-empty directory"},
	{"post_generation.auto_install_deps", KindBool, true, "Run `mise install` after generation"},
	{"post_generation.auto_setup_hooks", KindBool, true, "Run `hk install` after generation"},
	{"post_generation.open_editor", KindBool, false, "Open the new project in an editor"},
	{"post_generation.editor", KindString, "", "Editor command (defaults to $VISUAL, $EDITOR, then code)"},
}

// Keys returns all known keys in display order.
func Keys() []Key {
	out := make([]Key, len(schema))
	copy(out, schema)
	return out
}

// LookupKey returns the key named name.
func LookupKey(name string) (Key, error) {
	for _, k := range schema {
		if k.Name == name {
			return k, nil
		}
	}
	return Key{}, errors.WithHint(
		errors.Wrapf(errUtils.ErrUnknownConfigKey, "%q", name),
		"Run 'cza config list' to see the available keys",
	)
}

// Parse converts raw into the key's declared type.
func (k Key) Parse(raw string) (any, error) {
	switch k.Kind {
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(errUtils.ErrInvalidConfigValue, "%s expects a bool, got %q", k.Name, raw),
				"Use true or false",
			)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// Format renders a typed value the way `config get` prints it.
func (k Key) Format(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
