// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork only needs to edit one file.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName          string `yaml:"cli_name"`
	DisplayName      string `yaml:"display_name"`
	Description      string `yaml:"description"`
	ConfigDir        string `yaml:"config_dir"`
	EnvPrefix        string `yaml:"env_prefix"`
	GitHubRepo       string `yaml:"github_repo"`
	TemplatesRepoURL string `yaml:"templates_repo_url"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:          "cza",
			DisplayName:      "create-zk-app",
			Description:      "Scaffold zero-knowledge application projects from curated templates",
			ConfigDir:        "cza",
			EnvPrefix:        "CZA",
			GitHubRepo:       "sripwoud/cza",
			TemplatesRepoURL: "https://github.com/sripwoud/cza-templates",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "cza").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// ConfigDir returns the directory name used under the XDG config home.
func ConfigDir() string { load(); return defaults.ConfigDir }

// EnvPrefix returns the environment variable prefix (e.g., "CZA").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" string releases are published under.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// GitHubOwnerRepo splits GitHubRepo into owner and repository name.
func GitHubOwnerRepo() (owner, repo string) {
	parts := strings.SplitN(GitHubRepo(), "/", 2)
	if len(parts) != 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// TemplatesRepoURL returns the repository hosting the built-in templates.
func TemplatesRepoURL() string { load(); return defaults.TemplatesRepoURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("LOG") → "CZA_LOG".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
