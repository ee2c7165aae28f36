// Package scaffold materializes a template source into a project directory.
// The source is fetched with go-getter, files ending in .tmpl and path
// segments containing {{ }} are rendered with text/template and the sprig
// function map, and the finished tree is moved into place in one step.
package scaffold
