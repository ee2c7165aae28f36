// Package templates holds the built-in catalogue of project templates. The
// catalogue is embedded from templates.toml, checked against a JSON schema
// at load time, and never changes afterwards.
package templates
