package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/branding"
)

const fileName = "config.toml"

// Configuration is the merged, typed view of all layers. It is produced by
// Store.Load and handed to consumers by value.
type Configuration struct {
	User           UserConfig           `mapstructure:"user"`
	Development    DevelopmentConfig    `mapstructure:"development"`
	PostGeneration PostGenerationConfig `mapstructure:"post_generation"`
}

// UserConfig holds user preferences.
type UserConfig struct {
	Author          string `mapstructure:"author"`
	Email           string `mapstructure:"email"`
	GitInit         bool   `mapstructure:"git_init"`
	DefaultTemplate string `mapstructure:"default_template"`
}

// DevelopmentConfig holds output and safety settings.
type DevelopmentConfig struct {
	Verbose          bool `mapstructure:"verbose"`
	Color            bool `mapstructure:"color"`
	ConfirmOverwrite bool `mapstructure:"confirm_overwrite"`
}

// PostGenerationConfig controls which setup steps run after rendering.
type PostGenerationConfig struct {
	AutoInstallDeps bool   `mapstructure:"auto_install_deps"`
	AutoSetupHooks  bool   `mapstructure:"auto_setup_hooks"`
	OpenEditor      bool   `mapstructure:"open_editor"`
	Editor          string `mapstructure:"editor"`
}

// Defaults returns the configuration with every key at its default.
func Defaults() Configuration {
	v := newViper()
	var cfg Configuration
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Dir returns the directory holding the config file. The CZA_CONFIG
// variable, when set, points at the file itself.
func Dir() string {
	return filepath.Dir(FilePath())
}

// FilePath returns the config file location ($XDG_CONFIG_HOME/cza/config.toml).
func FilePath() string {
	if v := os.Getenv(branding.EnvVar("CONFIG")); v != "" {
		return v
	}
	return filepath.Join(xdg.ConfigHome, branding.ConfigDir(), fileName)
}

// Entry is one row of `config list`.
type Entry struct {
	Key   string
	Value string
	IsSet bool
}

// Store owns the persisted configuration file and merges it with defaults,
// environment overrides, and bound command-line flags.
type Store struct {
	path  string
	flags map[string]*pflag.Flag
}

// Option configures a Store.
type Option func(*Store)

// WithPath overrides the config file location.
func WithPath(path string) Option {
	return func(s *Store) {
		s.path = path
	}
}

// Open returns a Store for the config file. The first access to a missing
// file writes one populated with defaults.
func Open(opts ...Option) (*Store, error) {
	s := &Store{
		path:  FilePath(),
		flags: make(map[string]*pflag.Flag),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.path
}

// BindFlag layers a command-line flag over key. The flag only takes effect
// when it was set explicitly.
func (s *Store) BindFlag(key string, flag *pflag.Flag) error {
	if _, err := LookupKey(key); err != nil {
		return err
	}
	if flag == nil {
		return nil
	}
	s.flags[key] = flag
	return nil
}

// Load merges defaults < file < environment < flags into a Configuration.
func (s *Store) Load() (Configuration, error) {
	v, err := s.merged()
	if err != nil {
		return Configuration{}, err
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return Configuration{}, errors.Wrapf(errUtils.ErrConfigLoad, "decoding %s: %v", s.path, err)
	}
	return cfg, nil
}

// Get returns the merged value of key formatted as a string.
func (s *Store) Get(key string) (string, error) {
	k, err := LookupKey(key)
	if err != nil {
		return "", err
	}
	v, err := s.merged()
	if err != nil {
		return "", err
	}
	return k.Format(typed(k, v)), nil
}

// List returns every key with its merged value in schema order.
func (s *Store) List() ([]Entry, error) {
	v, err := s.merged()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(schema))
	for _, k := range schema {
		val := k.Format(typed(k, v))
		entries = append(entries, Entry{Key: k.Name, Value: val, IsSet: val != ""})
	}
	return entries, nil
}

// Set type-checks value against key and persists it atomically.
func (s *Store) Set(key, value string) error {
	k, err := LookupKey(key)
	if err != nil {
		return err
	}
	parsed, err := k.Parse(value)
	if err != nil {
		return err
	}

	doc, err := s.readFile()
	if err != nil {
		return err
	}
	section, ok := doc[k.Section()].(map[string]any)
	if !ok {
		section = make(map[string]any)
		doc[k.Section()] = section
	}
	section[k.Field()] = parsed

	log.Debug("Writing configuration", "key", key, "path", s.path)
	return s.writeFile(doc)
}

// Reset removes the persisted file. Subsequent loads see defaults only.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(errUtils.ErrConfigWrite, "removing %s: %v", s.path, err)
	}
	log.Debug("Removed configuration file", "path", s.path)
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for _, k := range schema {
		v.SetDefault(k.Name, k.Default)
	}
	return v
}

// merged builds a fresh viper instance holding every layer.
func (s *Store) merged() (*viper.Viper, error) {
	v := newViper()

	doc, err := s.readFile()
	if err != nil {
		return nil, err
	}
	warnUnknown(doc, s.path)
	if err := v.MergeConfigMap(doc); err != nil {
		return nil, errors.Wrapf(errUtils.ErrConfigLoad, "merging %s: %v", s.path, err)
	}

	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range schema {
		if err := v.BindEnv(k.Name); err != nil {
			return nil, errors.Wrapf(errUtils.ErrConfigLoad, "binding env for %s: %v", k.Name, err)
		}
	}

	for key, flag := range s.flags {
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, errors.Wrapf(errUtils.ErrConfigLoad, "binding flag for %s: %v", key, err)
		}
	}
	return v, nil
}

// typed reads key from v coerced to its declared kind.
func typed(k Key, v *viper.Viper) any {
	if k.Kind == KindBool {
		return v.GetBool(k.Name)
	}
	return v.GetString(k.Name)
}

func (s *Store) ensureFile() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(errUtils.ErrConfigLoad, "stat %s: %v", s.path, err)
	}

	log.Debug("Creating default configuration", "path", s.path)
	return s.writeFile(defaultDocument())
}

// readFile returns the persisted layer as nested tables. A missing file is
// an empty layer.
func (s *Store) readFile() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, errors.Wrapf(errUtils.ErrConfigLoad, "reading %s: %v", s.path, err)
	}

	doc := make(map[string]any)
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(errUtils.ErrConfigLoad, "parsing %s: %v", s.path, err),
			"Fix the file by hand or run 'cza config reset'",
		)
	}
	return doc, nil
}

// writeFile persists doc through a temp file renamed over the target, so an
// interrupted write never leaves a truncated config behind.
func (s *Store) writeFile(doc map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrapf(errUtils.ErrConfigWrite, "creating %s: %v", filepath.Dir(s.path), err)
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrapf(errUtils.ErrConfigWrite, "encoding config: %v", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrapf(errUtils.ErrConfigWrite, "writing %s: %v", s.path, err)
	}
	return nil
}

func defaultDocument() map[string]any {
	doc := make(map[string]any)
	for _, k := range schema {
		section, ok := doc[k.Section()].(map[string]any)
		if !ok {
			section = make(map[string]any)
			doc[k.Section()] = section
		}
		section[k.Field()] = k.Default
	}
	return doc
}

func warnUnknown(doc map[string]any, path string) {
	for section, raw := range doc {
		table, ok := raw.(map[string]any)
		if !ok {
			log.Warn("Ignoring unknown configuration entry", "key", section, "path", path)
			continue
		}
		for field := range table {
			if _, err := LookupKey(section + "." + field); err != nil {
				log.Warn("Ignoring unknown configuration key", "key", section+"."+field, "path", path)
			}
		}
	}
}
