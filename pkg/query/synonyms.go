package query

import (
	"sort"

	"github.com/gedex/inflector"
)

// Synonyms returns the singular and plural forms of name, sorted.
// Both forms resolve to the same parameter.
func Synonyms(name string) []string {
	singular := inflector.Singularize(name)
	if singular == "" {
		singular = name
	}
	plural := inflector.Pluralize(singular)
	if plural == "" {
		plural = singular + "s"
	}

	if singular == plural {
		return []string{singular}
	}
	out := []string{singular, plural}
	sort.Strings(out)
	return out
}
