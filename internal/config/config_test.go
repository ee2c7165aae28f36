package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/sripwoud/cza/errors"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(WithPath(filepath.Join(t.TempDir(), "cza", "config.toml")))
	require.NoError(t, err)
	return s
}

func TestOpenWritesDefaults(t *testing.T) {
	s := openTemp(t)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[user]")
	assert.Contains(t, string(data), "git_init = true")
	assert.Contains(t, string(data), "[post_generation]")
}

func TestLoadDefaults(t *testing.T) {
	s := openTemp(t)

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.True(t, cfg.User.GitInit)
	assert.True(t, cfg.Development.Color)
	assert.True(t, cfg.Development.ConfirmOverwrite)
	assert.False(t, cfg.Development.Verbose)
	assert.True(t, cfg.PostGeneration.AutoInstallDeps)
	assert.True(t, cfg.PostGeneration.AutoSetupHooks)
	assert.False(t, cfg.PostGeneration.OpenEditor)
}

func TestSetGetRoundTrip(t *testing.T) {
	s := openTemp(t)

	require.NoError(t, s.Set("user.author", "Alice"))
	require.NoError(t, s.Set("user.git_init", "false"))

	got, err := s.Get("user.author")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got)

	got, err = s.Get("user.git_init")
	require.NoError(t, err)
	assert.Equal(t, "false", got)

	// A second store on the same file sees the persisted values.
	other, err := Open(WithPath(s.Path()))
	require.NoError(t, err)
	cfg, err := other.Load()
	require.NoError(t, err)
	assert.Equal(t, "Alice", cfg.User.Author)
	assert.False(t, cfg.User.GitInit)
}

func TestSetInvalidBool(t *testing.T) {
	s := openTemp(t)

	err := s.Set("user.git_init", "maybe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUtils.ErrInvalidConfigValue))

	got, err := s.Get("user.git_init")
	require.NoError(t, err)
	assert.Equal(t, "true", got)
}

func TestUnknownKey(t *testing.T) {
	s := openTemp(t)

	_, err := s.Get("user.nickname")
	assert.True(t, errors.Is(err, errUtils.ErrUnknownConfigKey))

	err = s.Set("user.nickname", "bob")
	assert.True(t, errors.Is(err, errUtils.ErrUnknownConfigKey))
}

func TestResetRestoresDefaults(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Set("development.verbose", "true"))

	require.NoError(t, s.Reset())
	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.False(t, cfg.Development.Verbose)

	// Resetting twice is fine.
	require.NoError(t, s.Reset())
}

func TestEnvOverridesFile(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Set("user.git_init", "true"))
	t.Setenv("CZA_USER_GIT_INIT", "false")

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.False(t, cfg.User.GitInit)

	got, err := s.Get("user.git_init")
	require.NoError(t, err)
	assert.Equal(t, "false", got)
}

func TestFlagOverridesEnv(t *testing.T) {
	s := openTemp(t)
	t.Setenv("CZA_DEVELOPMENT_VERBOSE", "false")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("verbose", false, "")
	require.NoError(t, s.BindFlag("development.verbose", fs.Lookup("verbose")))

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.False(t, cfg.Development.Verbose, "unset flag must not override")

	require.NoError(t, fs.Parse([]string{"--verbose"}))
	cfg, err = s.Load()
	require.NoError(t, err)
	assert.True(t, cfg.Development.Verbose)
}

func TestBindFlagUnknownKey(t *testing.T) {
	s := openTemp(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("loud", false, "")
	err := s.BindFlag("development.loud", fs.Lookup("loud"))
	assert.True(t, errors.Is(err, errUtils.ErrUnknownConfigKey))
}

func TestListSchemaOrder(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Set("user.email", "a@example.com"))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, len(Keys()))
	for i, k := range Keys() {
		assert.Equal(t, k.Name, entries[i].Key)
	}
	assert.Equal(t, "a@example.com", entries[1].Value)
	assert.True(t, entries[1].IsSet)
	assert.False(t, entries[0].IsSet)
}

func TestFilePathEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	t.Setenv("CZA_CONFIG", path)
	assert.Equal(t, path, FilePath())
	assert.Equal(t, filepath.Dir(path), Dir())
}

func TestMalformedFile(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("[user\nauthor ="), 0o644))

	_, err := s.Load()
	assert.True(t, errors.Is(err, errUtils.ErrConfigLoad))
}
