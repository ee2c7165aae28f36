// Package generate wires planning, rendering, and the post-generation
// pipeline into the single operation behind `cza new`.
package generate
