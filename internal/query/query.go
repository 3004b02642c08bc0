// Package query builds the persona query text that document sections
// are ranked against.
package query

import "strings"

// Build combines a persona description and a task description into the
// single query string used for embedding. Both parts are treated as
// opaque text beyond whitespace normalization.
func Build(persona, task string) string {
	return Normalize(persona) + ". Task: " + Normalize(task)
}

// Normalize trims leading and trailing whitespace and collapses
// internal whitespace runs to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
