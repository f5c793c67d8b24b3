package evidence

import (
	"fmt"

	"github.com/omnipath-client/pkg/table"
)

type pair struct {
	source, target string
}

// FromEvidences returns a copy of t whose standard interaction columns are
// recomputed from the evidences in col. Rows left without any evidence are
// dropped.
func FromEvidences(t *table.Table, col string) (*table.Table, error) {
	c := t.Column(col)
	if c == nil {
		return nil, fmt.Errorf("column %q not found", col)
	}

	n := t.Len()
	parsed := make([]Evidences, n)
	for i, v := range c.Values {
		evs, err := Parse(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse evidences of row %d: %w", i, err)
		}
		parsed[i] = evs
	}

	var (
		isDirected    = make([]any, n)
		isStimulation = make([]any, n)
		isInhibition  = make([]any, n)
		effort        = make([]any, n)
		srcs          = make([]any, n)
		refs          = make([]any, n)
		consStim      = make([]any, n)
		consInh       = make([]any, n)
		consDir       = make([]any, n)
		ceDirected    = make([]int, n)
	)
	for i, evs := range parsed {
		cePositive := curationEffort(evs[Positive])
		ceNegative := curationEffort(evs[Negative])
		ceDirected[i] = curationEffort(evs[Directed])
		all := evs.all()

		isDirected[i] = len(evs[Directed]) > 0
		isStimulation[i] = len(evs[Positive]) > 0
		isInhibition[i] = len(evs[Negative]) > 0
		effort[i] = int64(curationEffort(all))
		srcs[i] = sources(all)
		refs[i] = references(all)
		consStim[i] = cePositive >= ceNegative
		consInh[i] = cePositive <= ceNegative
	}

	// consensus_direction compares against the row with swapped endpoints
	reverse := make(map[pair][]int)
	hasPairs := t.Has("source") && t.Has("target")
	if hasPairs {
		for i := 0; i < n; i++ {
			p := rowPair(t, i)
			reverse[p] = append(reverse[p], i)
		}
	}
	for i := 0; i < n; i++ {
		consDir[i] = true
		if !hasPairs {
			continue
		}
		p := rowPair(t, i)
		for _, j := range reverse[pair{source: p.target, target: p.source}] {
			if ceDirected[i] < ceDirected[j] {
				consDir[i] = false
				break
			}
		}
	}

	out := t.Clone()
	sets := []struct {
		name   string
		kind   table.Kind
		values []any
	}{
		{"is_directed", table.KindBool, isDirected},
		{"is_stimulation", table.KindBool, isStimulation},
		{"is_inhibition", table.KindBool, isInhibition},
		{"curation_effort", table.KindInt, effort},
		{"sources", table.KindString, srcs},
		{"references", table.KindString, refs},
		{"consensus_stimulation", table.KindBool, consStim},
		{"consensus_inhibition", table.KindBool, consInh},
		{"consensus_direction", table.KindBool, consDir},
	}
	for _, s := range sets {
		if err := out.Set(s.name, s.kind, s.values); err != nil {
			return nil, err
		}
	}

	if err := CountSources(out); err != nil {
		return nil, err
	}
	if err := CountReferences(out); err != nil {
		return nil, err
	}
	if err := StripResourceLabels(out, "references"); err != nil {
		return nil, err
	}

	return out.Filter(func(row int) bool {
		s, ok := out.Column("sources").String(row)
		return ok && s != ""
	}), nil
}

func rowPair(t *table.Table, row int) pair {
	src, _ := t.Column("source").String(row)
	tgt, _ := t.Column("target").String(row)
	return pair{source: src, target: tgt}
}

// OnlyFrom restricts t to the evidences of the given datasets and resources
// and rebuilds the standard columns from what remains
func OnlyFrom(t *table.Table, datasets, resources []string) (*table.Table, error) {
	if !t.Has(Column) {
		return nil, ErrNoEvidences
	}

	work := t.Clone()
	if err := FilterColumn(work, Column, tmpColumn, datasets, resources); err != nil {
		return nil, err
	}
	out, err := FromEvidences(work, tmpColumn)
	if err != nil {
		return nil, err
	}
	out.Drop(tmpColumn)
	return out, nil
}
