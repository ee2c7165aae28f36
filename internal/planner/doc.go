// Package planner turns a generation request and the merged configuration
// into an immutable Plan: the resolved template, the absolute destination,
// the template variables, and the fixed sequence of steps with their
// enabled state. Planning only reads the filesystem.
package planner
