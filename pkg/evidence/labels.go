package evidence

import (
	"regexp"
	"sort"
	"strings"

	"github.com/omnipath-client/pkg/table"
)

// the lazy prefix keeps bare numeric identifiers whole
var resourceLabel = regexp.MustCompile(`[-\w]*?:?(\d+)`)

// splitUnique splits a semicolon separated value into its sorted distinct
// non-empty parts
func splitUnique(s string) []string {
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ";") {
		if part != "" {
			seen[part] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// stripLabel removes the resource prefixes of references, "PubMed:123" becomes "123"
func stripLabel(s string) []string {
	return splitUnique(resourceLabel.ReplaceAllString(s, "${1}"))
}

// StripResourceLabels adds <col>_stripped holding the distinct reference
// identifiers of col without their resource prefixes. Nulls stay null.
func StripResourceLabels(t *table.Table, col string) error {
	c := t.Column(col)
	if c == nil {
		return nil
	}
	values := make([]any, c.Len())
	for i := range c.Values {
		if s, ok := c.String(i); ok {
			values[i] = strings.Join(stripLabel(s), ";")
		}
	}
	return t.Set(col+"_stripped", table.KindString, values)
}

// CountReferences adds n_references, the number of distinct reference
// identifiers regardless of the resource citing them
func CountReferences(t *table.Table) error {
	c := t.Column("references")
	if c == nil {
		return nil
	}
	values := make([]any, c.Len())
	for i := range c.Values {
		if s, ok := c.String(i); ok {
			values[i] = int64(len(stripLabel(s)))
		}
	}
	return t.Set("n_references", table.KindInt, values)
}

// CountSources adds n_sources and n_primary_sources. Secondary sources carry
// the primary resource as a prefix, "SIGNOR_ProtMapper".
func CountSources(t *table.Table) error {
	c := t.Column("sources")
	if c == nil {
		return nil
	}
	total := make([]any, c.Len())
	primary := make([]any, c.Len())
	for i := range c.Values {
		s, _ := c.String(i)
		var all, prim int64
		for _, part := range strings.Split(s, ";") {
			if part == "" {
				continue
			}
			all++
			if !strings.Contains(part, "_") {
				prim++
			}
		}
		total[i], primary[i] = all, prim
	}
	if err := t.Set("n_sources", table.KindInt, total); err != nil {
		return err
	}
	return t.Set("n_primary_sources", table.KindInt, primary)
}
