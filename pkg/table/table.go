// Package table implements the typed, column-oriented result table returned by
// every OmniPath request, together with its TSV/JSON decoders and the dtype
// normalization applied to downloaded results.
package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the storage class of a column
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindCategorical
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindCategorical:
		return "categorical"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Column holds the values of one column. A nil value is a null cell.
//
// Values are stored as string, int64, float64, bool or, for object columns,
// whatever a JSON decoder produced (maps, slices). Categorical columns keep
// their original values and record the sorted distinct levels in Categories.
type Column struct {
	Name       string
	Kind       Kind
	Values     []any
	Categories []string
}

// Len returns the number of cells
func (c *Column) Len() int { return len(c.Values) }

// String returns the string form of cell i and whether it is non-null
func (c *Column) String(i int) (string, bool) {
	v := c.Values[i]
	if v == nil {
		return "", false
	}
	return FormatValue(v), true
}

// Table is an ordered set of equally long columns
type Table struct {
	columns []*Column
	index   map[string]int
}

// New creates a table from columns, which must all have the same length
func New(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if err := t.SetColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is New that panics on error, for tests and literals
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil || len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0].Values)
}

// NumColumns returns the number of columns
func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.columns)
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table has a column called name
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column or nil
func (t *Table) Column(name string) *Column {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.columns[i]
}

// Value returns the cell at row for the named column, nil when absent
func (t *Table) Value(row int, name string) any {
	c := t.Column(name)
	if c == nil {
		return nil
	}
	return c.Values[row]
}

// SetColumn adds c or replaces the column with the same name
func (t *Table) SetColumn(c *Column) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("column must have a name")
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	_, replacing := t.index[c.Name]
	onlyColumn := replacing && len(t.columns) == 1
	if len(t.columns) > 0 && !onlyColumn && len(c.Values) != t.Len() {
		return fmt.Errorf("column %q has %d values, table has %d rows", c.Name, len(c.Values), t.Len())
	}
	if i, ok := t.index[c.Name]; ok {
		t.columns[i] = c
		return nil
	}
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// Set adds or replaces a column built from values
func (t *Table) Set(name string, kind Kind, values []any) error {
	return t.SetColumn(&Column{Name: name, Kind: kind, Values: values})
}

// Drop removes the named columns, ignoring names that are absent
func (t *Table) Drop(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := t.columns[:0]
	for _, c := range t.columns {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	t.columns = kept
	t.reindex()
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		t.index[c.Name] = i
	}
}

// Row returns row i as a map from column name to value
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.columns))
	for _, c := range t.columns {
		row[c.Name] = c.Values[i]
	}
	return row
}

// Filter returns a new table holding the rows for which keep returns true
func (t *Table) Filter(keep func(row int) bool) *Table {
	var rows []int
	for i := 0; i < t.Len(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.Take(rows)
}

// Take returns a new table made of the given rows, in order
func (t *Table) Take(rows []int) *Table {
	out := &Table{index: make(map[string]int, len(t.columns))}
	for _, c := range t.columns {
		values := make([]any, len(rows))
		for j, r := range rows {
			values[j] = c.Values[r]
		}
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, &Column{
			Name:       c.Name,
			Kind:       c.Kind,
			Values:     values,
			Categories: append([]string(nil), c.Categories...),
		})
	}
	return out
}

// ShallowCopy returns a table with fresh column slices that share cell values.
// Mutating the copy's structure or cells never affects the original.
func (t *Table) ShallowCopy() any {
	return t.Clone()
}

// Clone returns a copy of the table with fresh column slices
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{index: make(map[string]int, len(t.columns))}
	for _, c := range t.columns {
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, &Column{
			Name:       c.Name,
			Kind:       c.Kind,
			Values:     append([]any(nil), c.Values...),
			Categories: append([]string(nil), c.Categories...),
		})
	}
	return out
}

// Concat stacks tables vertically. Columns missing from a table are filled
// with nulls; kinds that disagree widen to float (int+float) or object.
func Concat(tables ...*Table) *Table {
	out := &Table{index: make(map[string]int)}
	total := 0
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.columns {
			i, ok := out.index[c.Name]
			if !ok {
				out.index[c.Name] = len(out.columns)
				out.columns = append(out.columns, &Column{
					Name:   c.Name,
					Kind:   c.Kind,
					Values: make([]any, total),
				})
				continue
			}
			out.columns[i].Kind = widen(out.columns[i].Kind, c.Kind)
		}
		for _, oc := range out.columns {
			if src := t.Column(oc.Name); src != nil {
				oc.Values = append(oc.Values, src.Values...)
			} else {
				oc.Values = append(oc.Values, make([]any, t.Len())...)
			}
		}
		total += t.Len()
	}
	for _, c := range out.columns {
		switch c.Kind {
		case KindFloat:
			for i, v := range c.Values {
				if n, ok := v.(int64); ok {
					c.Values[i] = float64(n)
				}
			}
		case KindCategorical:
			c.Categories = levels(c.Values)
		}
	}
	return out
}

func widen(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case (a == KindInt && b == KindFloat) || (a == KindFloat && b == KindInt):
		return KindFloat
	case (a == KindString && b == KindCategorical) || (a == KindCategorical && b == KindString):
		return KindString
	}
	return KindObject
}

// FormatValue renders a cell the way it is written to TSV
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return formatFloat(val)
	case bool:
		if val {
			return "True"
		}
		return "False"
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

func levels(values []any) []string {
	seen := make(map[string]struct{})
	for _, v := range values {
		if v == nil {
			continue
		}
		seen[FormatValue(v)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
