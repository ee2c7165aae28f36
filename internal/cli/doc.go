// Package cli defines the Cobra command tree for cza. Each file registers one
// top-level command with the root command. Commands delegate to the internal
// packages for behavior and only handle flags, output, and prompting.
package cli
