package updater

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/renameio/v2"
)

const cacheFileName = "version-check.json"

// VersionCache holds cached version check results.
type VersionCache struct {
	LatestVersion   string    `json:"latest_version"`
	CurrentVersion  string    `json:"current_version"`
	CheckedAt       time.Time `json:"checked_at"`
	UpdateAvailable bool      `json:"update_available"`
}

// LoadCache reads the version cache from the config directory.
// Returns nil, nil if the cache file does not exist (first run).
func LoadCache(configDir string) (*VersionCache, error) {
	path := filepath.Join(configDir, cacheFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading version cache")
	}

	var cache VersionCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, errors.Wrap(err, "parsing version cache")
	}
	return &cache, nil
}

// SaveCache atomically writes the version cache to the config directory.
func SaveCache(configDir string, cache *VersionCache) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling version cache")
	}

	path := filepath.Join(configDir, cacheFileName)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing version cache")
	}
	return nil
}
