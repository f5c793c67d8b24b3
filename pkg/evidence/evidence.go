// Package evidence rebuilds the merged interaction columns (direction, sign,
// consensus, sources, references) from the nested per-resource evidences the
// web service attaches to every interaction, optionally restricted to a set of
// datasets and resources.
package evidence

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/omnipath-client/pkg/table"
)

// Bucket names of an evidences object
const (
	Positive   = "positive"
	Negative   = "negative"
	Directed   = "directed"
	Undirected = "undirected"
)

// Buckets lists the bucket names in their canonical order
var Buckets = []string{Positive, Negative, Directed, Undirected}

// Column is the default name of the nested evidences column
const Column = "evidences"

const tmpColumn = "evidences_filtered_tmp"

// ErrNoEvidences is returned when a table lacks the evidences column
var ErrNoEvidences = errors.New("the input table must contain an `evidences` column")

// Record is one piece of evidence: a resource, optionally reached via a
// secondary resource, backing an interaction with literature references
type Record struct {
	Dataset    string
	Resource   string
	Via        string
	References []string
}

// Label returns the source label, resource or resource_via
func (r Record) Label() string {
	if r.Via == "" {
		return r.Resource
	}
	return r.Resource + "_" + r.Via
}

// CurationEffort is the number of references plus one for the resource itself
func (r Record) CurationEffort() int {
	return len(r.References) + 1
}

// Evidences holds the records of one interaction grouped by bucket
type Evidences map[string][]Record

// Parse converts a decoded JSON evidences object. Missing buckets are empty;
// a nil value yields empty evidences.
func Parse(v any) (Evidences, error) {
	evs := make(Evidences, len(Buckets))
	if v == nil {
		return evs, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("evidences must be an object, got %T", v)
	}
	for _, bucket := range Buckets {
		items, ok := m[bucket].([]any)
		if !ok {
			continue
		}
		for i, item := range items {
			rec, err := parseRecord(item)
			if err != nil {
				return nil, fmt.Errorf("bucket %s record %d: %w", bucket, i, err)
			}
			evs[bucket] = append(evs[bucket], rec)
		}
	}
	return evs, nil
}

func parseRecord(v any) (Record, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("evidence record must be an object, got %T", v)
	}
	rec := Record{
		Dataset:  stringField(m["dataset"]),
		Resource: stringField(m["resource"]),
		Via:      stringField(m["via"]),
	}
	if refs, ok := m["references"].([]any); ok {
		for _, ref := range refs {
			rec.References = append(rec.References, table.FormatValue(ref))
		}
	}
	return rec, nil
}

func stringField(v any) string {
	if v == nil {
		return ""
	}
	return table.FormatValue(v)
}

// all returns every record across the buckets, in bucket order
func (e Evidences) all() []Record {
	var out []Record
	for _, b := range Buckets {
		out = append(out, e[b]...)
	}
	return out
}

func curationEffort(records []Record) int {
	total := 0
	for _, r := range records {
		total += r.CurationEffort()
	}
	return total
}

func sources(records []Record) string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Label()] = struct{}{}
	}
	return joinSorted(seen)
}

func references(records []Record) string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, ref := range r.References {
			seen[r.Resource+":"+ref] = struct{}{}
		}
	}
	return joinSorted(seen)
}

func joinSorted(set map[string]struct{}) string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return strings.Join(out, ";")
}

// Filter keeps only the evidence records whose dataset is in datasets and
// whose resource is in resources; an empty list does not restrict. Objects are
// walked recursively, lists of records are filtered and any other value is
// returned unchanged. The input is not modified.
func Filter(evs any, datasets, resources []string) any {
	ds := toSet(datasets)
	rs := toSet(resources)

	var walk func(v any) any
	walk = func(v any) any {
		switch val := v.(type) {
		case map[string]any:
			out := make(map[string]any, len(val))
			for k, item := range val {
				out[k] = walk(item)
			}
			return out
		case []any:
			out := make([]any, 0, len(val))
			for _, item := range val {
				rec, ok := item.(map[string]any)
				if !ok {
					out = append(out, item)
					continue
				}
				if len(ds) > 0 && !ds[stringField(rec["dataset"])] {
					continue
				}
				if len(rs) > 0 && !rs[stringField(rec["resource"])] {
					continue
				}
				out = append(out, item)
			}
			return out
		}
		return v
	}
	return walk(evs)
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

// FilterColumn writes the filtered evidences of col into target
func FilterColumn(t *table.Table, col, target string, datasets, resources []string) error {
	c := t.Column(col)
	if c == nil {
		return fmt.Errorf("column %q not found", col)
	}
	values := make([]any, c.Len())
	for i, v := range c.Values {
		values[i] = Filter(v, datasets, resources)
	}
	return t.Set(target, table.KindObject, values)
}

// Unnest adds one column per bucket, each holding the bucket's record list
func Unnest(t *table.Table, col string) error {
	c := t.Column(col)
	if c == nil {
		return fmt.Errorf("column %q not found", col)
	}
	columns := make(map[string][]any, len(Buckets))
	for _, b := range Buckets {
		columns[b] = make([]any, c.Len())
	}
	for i, v := range c.Values {
		m, _ := v.(map[string]any)
		for _, b := range Buckets {
			items, ok := m[b].([]any)
			if !ok {
				items = []any{}
			}
			columns[b][i] = items
		}
	}
	for _, b := range Buckets {
		if err := t.Set(b, table.KindObject, columns[b]); err != nil {
			return err
		}
	}
	return nil
}
