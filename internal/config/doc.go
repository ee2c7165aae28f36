// Package config manages the user settings file at
// $XDG_CONFIG_HOME/cza/config.toml. A Store merges built-in defaults, the
// persisted file, CZA_* environment variables, and bound command-line flags
// into a typed Configuration, and persists single-key edits atomically.
package config
