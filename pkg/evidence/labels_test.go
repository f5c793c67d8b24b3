package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnipath-client/pkg/table"
)

func TestStripResourceLabels(t *testing.T) {
	tbl := table.MustNew(&table.Column{
		Name: "references",
		Kind: table.KindString,
		Values: []any{
			"SIGNOR:123;HPRD:123;KEGG-MEDICUS:456",
			"789",
			nil,
		},
	})

	require.NoError(t, StripResourceLabels(tbl, "references"))
	assert.Equal(t, []any{"123;456", "789", nil}, tbl.Column("references_stripped").Values)
}

func TestCountReferences(t *testing.T) {
	tbl := table.MustNew(&table.Column{
		Name:   "references",
		Kind:   table.KindString,
		Values: []any{"SIGNOR:123;HPRD:123;KEGG:456", nil},
	})

	require.NoError(t, CountReferences(tbl))
	assert.Equal(t, []any{int64(2), nil}, tbl.Column("n_references").Values)
}

func TestCountSources(t *testing.T) {
	tbl := table.MustNew(&table.Column{
		Name:   "sources",
		Kind:   table.KindString,
		Values: []any{"SIGNOR;SIGNOR_ProtMapper;KEGG", nil},
	})

	require.NoError(t, CountSources(tbl))
	assert.Equal(t, []any{int64(3), int64(0)}, tbl.Column("n_sources").Values)
	assert.Equal(t, []any{int64(2), int64(0)}, tbl.Column("n_primary_sources").Values)
}

func TestCountHelpersIgnoreMissingColumns(t *testing.T) {
	tbl := table.MustNew(&table.Column{Name: "x", Kind: table.KindInt, Values: []any{int64(1)}})

	require.NoError(t, CountSources(tbl))
	require.NoError(t, CountReferences(tbl))
	require.NoError(t, StripResourceLabels(tbl, "references"))
	assert.Equal(t, []string{"x"}, tbl.Columns())
}
