package table

import (
	"strings"
)

// Schema declares which columns of an endpoint's results are free text,
// logical or categorical. Columns not present in a table are ignored.
type Schema struct {
	Strings     []string
	Logical     []string
	Categorical []string
}

// Merge returns the union of s and other
func (s Schema) Merge(other Schema) Schema {
	return Schema{
		Strings:     union(s.Strings, other.Strings),
		Logical:     union(s.Logical, other.Logical),
		Categorical: union(s.Categorical, other.Categorical),
	}
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

var truthy = map[string]bool{"y": true, "t": true, "yes": true, "true": true, "1": true}

// NormalizeDtypes converts the declared columns in place: logical columns to
// bool, categorical columns (unless float) to categorical, string columns to
// string with nulls preserved. Applying it twice is a no-op.
func (t *Table) NormalizeDtypes(s Schema) {
	for _, name := range s.Logical {
		if c := t.Column(name); c != nil {
			toLogical(c)
		}
	}
	for _, name := range s.Categorical {
		if c := t.Column(name); c != nil {
			toCategorical(c)
		}
	}
	for _, name := range s.Strings {
		if c := t.Column(name); c != nil {
			toString(c)
		}
	}
}

func toLogical(c *Column) {
	if c.Kind == KindBool {
		for i, v := range c.Values {
			if v == nil {
				c.Values[i] = false
			}
		}
		return
	}

	numeric := c.Kind == KindInt || c.Kind == KindFloat
	for i, v := range c.Values {
		switch {
		case v == nil:
			c.Values[i] = false
		case numeric:
			c.Values[i] = toFloat(v) > 0
		default:
			c.Values[i] = truthy[strings.ToLower(FormatValue(v))]
		}
	}
	c.Kind = KindBool
	c.Categories = nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func toCategorical(c *Column) {
	if c.Kind == KindFloat || c.Kind == KindObject {
		return
	}
	c.Kind = KindCategorical
	c.Categories = levels(c.Values)
}

func toString(c *Column) {
	if c.Kind == KindString {
		return
	}
	for i, v := range c.Values {
		if v != nil {
			c.Values[i] = FormatValue(v)
		}
	}
	c.Kind = KindString
	c.Categories = nil
}
