package evidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnipath-client/pkg/cache"
	"github.com/omnipath-client/pkg/table"
)

func record(dataset, resource string, via any, refs ...any) map[string]any {
	if refs == nil {
		refs = []any{}
	}
	return map[string]any{
		"dataset":    dataset,
		"resource":   resource,
		"via":        via,
		"references": refs,
	}
}

func evidences(buckets map[string][]any) map[string]any {
	out := make(map[string]any, len(Buckets))
	for _, b := range Buckets {
		items := buckets[b]
		if items == nil {
			items = []any{}
		}
		out[b] = items
	}
	return out
}

func interactions(rows ...[3]any) *table.Table {
	src := make([]any, len(rows))
	tgt := make([]any, len(rows))
	evs := make([]any, len(rows))
	for i, r := range rows {
		src[i], tgt[i], evs[i] = r[0], r[1], r[2]
	}
	return table.MustNew(
		&table.Column{Name: "source", Kind: table.KindString, Values: src},
		&table.Column{Name: "target", Kind: table.KindString, Values: tgt},
		&table.Column{Name: Column, Kind: table.KindObject, Values: evs},
	)
}

func TestFromEvidences_SinglePositiveRecord(t *testing.T) {
	in := interactions([3]any{"P1", "P2", evidences(map[string][]any{
		Positive: {record("d1", "A", nil, "10", "11")},
	})})

	out, err := FromEvidences(in, Column)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	row := out.Row(0)
	assert.Equal(t, int64(3), row["curation_effort"])
	assert.Equal(t, "A", row["sources"])
	assert.Equal(t, "A:10;A:11", row["references"])
	assert.Equal(t, "10;11", row["references_stripped"])
	assert.Equal(t, int64(2), row["n_references"])
	assert.Equal(t, int64(1), row["n_sources"])
	assert.Equal(t, int64(1), row["n_primary_sources"])
	assert.Equal(t, true, row["is_stimulation"])
	assert.Equal(t, false, row["is_inhibition"])
	assert.Equal(t, false, row["is_directed"])
	assert.Equal(t, true, row["consensus_stimulation"])
	assert.Equal(t, false, row["consensus_inhibition"])
	assert.Equal(t, true, row["consensus_direction"])

	assert.Equal(t, table.KindBool, out.Column("is_stimulation").Kind)
	assert.Equal(t, table.KindInt, out.Column("curation_effort").Kind)
}

func TestFromEvidences_SecondarySources(t *testing.T) {
	in := interactions([3]any{"P1", "P2", evidences(map[string][]any{
		Directed: {
			record("d1", "SIGNOR", "ProtMapper", "1"),
			record("d1", "SIGNOR", nil, "1", "2"),
		},
	})})

	out, err := FromEvidences(in, Column)
	require.NoError(t, err)

	row := out.Row(0)
	assert.Equal(t, "SIGNOR;SIGNOR_ProtMapper", row["sources"])
	assert.Equal(t, "SIGNOR:1;SIGNOR:2", row["references"])
	assert.Equal(t, int64(2), row["n_sources"])
	assert.Equal(t, int64(1), row["n_primary_sources"])
	assert.Equal(t, int64(5), row["curation_effort"])
	assert.Equal(t, true, row["is_directed"])
}

func TestFromEvidences_SignTieSetsBothConsensusFlags(t *testing.T) {
	in := interactions([3]any{"P1", "P2", evidences(map[string][]any{
		Positive: {record("d1", "A", nil, "1")},
		Negative: {record("d1", "B", nil, "2")},
	})})

	out, err := FromEvidences(in, Column)
	require.NoError(t, err)

	row := out.Row(0)
	assert.Equal(t, true, row["consensus_stimulation"])
	assert.Equal(t, true, row["consensus_inhibition"])
	assert.Equal(t, true, row["is_stimulation"])
	assert.Equal(t, true, row["is_inhibition"])
}

func TestFromEvidences_ConsensusDirection(t *testing.T) {
	strong := evidences(map[string][]any{
		Directed: {record("d1", "A", nil, "1", "2", "3")},
	})
	weak := evidences(map[string][]any{
		Directed: {record("d1", "B", nil)},
	})
	alone := evidences(map[string][]any{
		Directed: {record("d1", "C", nil)},
	})

	in := interactions(
		[3]any{"P1", "P2", strong},
		[3]any{"P2", "P1", weak},
		[3]any{"P3", "P4", alone},
	)

	out, err := FromEvidences(in, Column)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	assert.Equal(t, true, out.Value(0, "consensus_direction"))
	assert.Equal(t, false, out.Value(1, "consensus_direction"))
	assert.Equal(t, true, out.Value(2, "consensus_direction"), "no reverse interaction")
}

func TestFromEvidences_ConsensusDirectionTie(t *testing.T) {
	ev := evidences(map[string][]any{
		Directed: {record("d1", "A", nil, "1")},
	})
	in := interactions([3]any{"P1", "P2", ev}, [3]any{"P2", "P1", ev})

	out, err := FromEvidences(in, Column)
	require.NoError(t, err)

	assert.Equal(t, true, out.Value(0, "consensus_direction"))
	assert.Equal(t, true, out.Value(1, "consensus_direction"))
}

func TestFromEvidences_DropsRowsWithoutEvidence(t *testing.T) {
	in := interactions(
		[3]any{"P1", "P2", evidences(nil)},
		[3]any{"P3", "P4", evidences(map[string][]any{Undirected: {record("d1", "A", nil)}})},
		[3]any{"P5", "P6", nil},
	)

	out, err := FromEvidences(in, Column)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "P3", out.Value(0, "source"))
	assert.Equal(t, "", out.Value(0, "references"))
	assert.Equal(t, int64(0), out.Value(0, "n_references"))
}

func TestFromEvidences_Idempotent(t *testing.T) {
	in := interactions(
		[3]any{"P1", "P2", evidences(map[string][]any{
			Positive: {record("d1", "A", nil, "10")},
			Directed: {record("d1", "A", nil, "10"), record("d2", "B", "C")},
		})},
		[3]any{"P2", "P1", evidences(map[string][]any{
			Negative: {record("d2", "B", nil, "12", "13")},
		})},
	)

	once, err := FromEvidences(in, Column)
	require.NoError(t, err)
	twice, err := FromEvidences(once, Column)
	require.NoError(t, err)

	require.Equal(t, once.Columns(), twice.Columns())
	for _, name := range once.Columns() {
		assert.Equal(t, once.Column(name).Values, twice.Column(name).Values, name)
	}
}

func TestFromEvidences_MalformedEvidences(t *testing.T) {
	in := interactions([3]any{"P1", "P2", "not an object"})

	_, err := FromEvidences(in, Column)
	assert.Error(t, err)

	_, err = FromEvidences(in, "missing")
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	evs := evidences(map[string][]any{
		Positive: {record("d1", "A", nil, "1"), record("d2", "B", nil)},
		Directed: {record("d1", "B", nil)},
	})

	tests := []struct {
		name      string
		datasets  []string
		resources []string
		positive  int
		directed  int
	}{
		{"no restriction", nil, nil, 2, 1},
		{"dataset", []string{"d1"}, nil, 1, 1},
		{"resource", nil, []string{"B"}, 1, 1},
		{"both", []string{"d1"}, []string{"B"}, 0, 1},
		{"nothing matches", []string{"d3"}, nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := Filter(evs, tt.datasets, tt.resources).(map[string]any)
			require.True(t, ok)
			assert.Len(t, out[Positive], tt.positive)
			assert.Len(t, out[Directed], tt.directed)
		})
	}

	// input untouched
	assert.Len(t, evs[Positive], 2)
}

func TestFilter_PassesThroughScalars(t *testing.T) {
	assert.Nil(t, Filter(nil, []string{"d1"}, nil))
	assert.Equal(t, "x", Filter("x", []string{"d1"}, nil))
	assert.Equal(t, []any{"x"}, Filter([]any{"x"}, []string{"d1"}, nil))
}

func TestOnlyFrom(t *testing.T) {
	in := interactions(
		[3]any{"P1", "P2", evidences(map[string][]any{
			Positive: {record("d1", "B", nil, "7")},
		})},
		[3]any{"P3", "P4", evidences(map[string][]any{
			Positive: {record("d1", "A", nil, "8")},
			Negative: {record("d1", "B", nil, "9")},
		})},
	)

	out, err := OnlyFrom(in, nil, []string{"A"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	assert.Equal(t, "P3", out.Value(0, "source"))
	assert.Equal(t, "A", out.Value(0, "sources"))
	assert.Equal(t, "A:8", out.Value(0, "references"))
	assert.Equal(t, false, out.Value(0, "is_inhibition"))
	assert.False(t, out.Has(tmpColumn))
	assert.True(t, out.Has(Column))

	// original evidences are kept intact
	kept := out.Value(0, Column).(map[string]any)
	assert.Len(t, kept[Negative], 1)
	assert.Equal(t, 2, in.Len())
}

func TestOnlyFrom_RequiresEvidencesColumn(t *testing.T) {
	in := table.MustNew(&table.Column{Name: "source", Kind: table.KindString, Values: []any{"P1"}})

	_, err := OnlyFrom(in, []string{"d1"}, nil)
	assert.ErrorIs(t, err, ErrNoEvidences)
}

func TestUnnest(t *testing.T) {
	in := interactions(
		[3]any{"P1", "P2", map[string]any{Positive: []any{record("d1", "A", nil)}}},
		[3]any{"P3", "P4", nil},
	)

	require.NoError(t, Unnest(in, Column))
	for _, b := range Buckets {
		require.True(t, in.Has(b), b)
	}
	assert.Len(t, in.Value(0, Positive), 1)
	assert.Equal(t, []any{}, in.Value(0, Negative))
	assert.Equal(t, []any{}, in.Value(1, Directed))
}

func TestFromEvidences_SameAfterCacheRoundTrip(t *testing.T) {
	fresh, err := table.ReadJSON(strings.NewReader(`[
		{"source": "a", "target": "b", "evidences": {
			"positive": [{"dataset": "d1", "resource": "A", "via": null, "references": [10, 11]}],
			"negative": [], "directed": [], "undirected": []
		}}
	]`))
	require.NoError(t, err)

	blob, err := cache.Encode(fresh)
	require.NoError(t, err)
	decoded, err := cache.Decode(blob)
	require.NoError(t, err)
	cached, ok := decoded.(*table.Table)
	require.True(t, ok)

	want, err := FromEvidences(fresh, Column)
	require.NoError(t, err)
	got, err := FromEvidences(cached, Column)
	require.NoError(t, err)

	assert.Equal(t, "A:10;A:11", want.Value(0, "references"))
	for _, col := range []string{"references", "references_stripped", "n_references", "curation_effort"} {
		assert.Equal(t, want.Column(col).Values, got.Column(col).Values, col)
	}
}
