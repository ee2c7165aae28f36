// Package pipeline executes the post-generation steps of a plan. Steps run
// one after another in plan order; a failing step is recorded and the next
// one still runs. The render step belongs to the generator and is never
// executed here.
package pipeline
