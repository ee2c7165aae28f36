// Package ui renders plans, pipeline reports, and template listings for the
// terminal, and asks the overwrite question when a TTY is attached.
package ui
