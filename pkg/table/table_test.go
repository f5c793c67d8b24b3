package table

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return MustNew(
		&Column{Name: "source", Kind: KindString, Values: []any{"P1", "P2", "P3"}},
		&Column{Name: "n", Kind: KindInt, Values: []any{int64(1), nil, int64(3)}},
	)
}

func TestNew_RejectsRaggedColumns(t *testing.T) {
	_, err := New(
		&Column{Name: "a", Values: []any{"x", "y"}},
		&Column{Name: "b", Values: []any{"x"}},
	)
	assert.Error(t, err)
}

func TestTable_SetAndDrop(t *testing.T) {
	tbl := sampleTable()

	require.NoError(t, tbl.Set("flag", KindBool, []any{true, false, true}))
	assert.Equal(t, []string{"source", "n", "flag"}, tbl.Columns())

	require.NoError(t, tbl.Set("n", KindInt, []any{int64(7), int64(8), int64(9)}))
	assert.Equal(t, int64(8), tbl.Value(1, "n"))
	assert.Equal(t, 3, tbl.NumColumns())

	tbl.Drop("n", "missing")
	assert.Equal(t, []string{"source", "flag"}, tbl.Columns())
	assert.False(t, tbl.Has("n"))
	assert.Equal(t, true, tbl.Value(2, "flag"))
}

func TestTable_Filter(t *testing.T) {
	tbl := sampleTable()

	out := tbl.Filter(func(row int) bool { return tbl.Value(row, "n") != nil })

	assert.Equal(t, 2, out.Len())
	assert.Equal(t, []any{"P1", "P3"}, out.Column("source").Values)
	assert.Equal(t, 3, tbl.Len(), "original must be untouched")
}

func TestTable_ShallowCopyIsIndependent(t *testing.T) {
	tbl := sampleTable()

	cp := tbl.ShallowCopy().(*Table)
	cp.Column("source").Values[0] = "changed"
	cp.Drop("n")

	assert.Equal(t, "P1", tbl.Value(0, "source"))
	assert.True(t, tbl.Has("n"))
}

func TestConcat(t *testing.T) {
	a := MustNew(
		&Column{Name: "x", Kind: KindInt, Values: []any{int64(1)}},
		&Column{Name: "y", Kind: KindString, Values: []any{"a"}},
	)
	b := MustNew(
		&Column{Name: "x", Kind: KindFloat, Values: []any{2.5, 3.5}},
		&Column{Name: "z", Kind: KindBool, Values: []any{true, false}},
	)

	out := Concat(a, nil, b)

	require.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"x", "y", "z"}, out.Columns())
	assert.Equal(t, KindFloat, out.Column("x").Kind)
	if diff := cmp.Diff([]any{1.0, 2.5, 3.5}, out.Column("x").Values); diff != "" {
		t.Errorf("x mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"a", nil, nil}, out.Column("y").Values); diff != "" {
		t.Errorf("y mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{nil, true, false}, out.Column("z").Values); diff != "" {
		t.Errorf("z mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "1.0", FormatValue(1.0))
	assert.Equal(t, "0.25", FormatValue(0.25))
	assert.Equal(t, "True", FormatValue(true))
}

func TestWriteTSV(t *testing.T) {
	tbl := MustNew(
		&Column{Name: "a", Kind: KindString, Values: []any{"x", nil}},
		&Column{Name: "b", Kind: KindObject, Values: []any{map[string]any{"k": "v"}, nil}},
	)

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteTSV(&buf))

	assert.Equal(t, "a\tb\nx\t\"{\"\"k\"\":\"\"v\"\"}\"\n\t\n", buf.String())
}
