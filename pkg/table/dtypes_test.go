package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func dtypeTable() *Table {
	return MustNew(
		&Column{Name: "is_directed", Kind: KindInt, Values: []any{int64(1), int64(0), nil}},
		&Column{Name: "is_inhibition", Kind: KindString, Values: []any{"Yes", "no", "T"}},
		&Column{Name: "score", Kind: KindFloat, Values: []any{0.1, 0.2, 0.3}},
		&Column{Name: "type", Kind: KindString, Values: []any{"post_translational", "transcriptional", "post_translational"}},
		&Column{Name: "genesymbol", Kind: KindInt, Values: []any{int64(7), nil, int64(9)}},
	)
}

var dtypeSchema = Schema{
	Logical:     []string{"is_directed", "is_inhibition", "absent"},
	Categorical: []string{"type", "score"},
	Strings:     []string{"genesymbol"},
}

func TestNormalizeDtypes(t *testing.T) {
	tbl := dtypeTable()

	tbl.NormalizeDtypes(dtypeSchema)

	assert.Equal(t, KindBool, tbl.Column("is_directed").Kind)
	assert.Equal(t, []any{true, false, false}, tbl.Column("is_directed").Values)
	assert.Equal(t, []any{true, false, true}, tbl.Column("is_inhibition").Values)

	assert.Equal(t, KindFloat, tbl.Column("score").Kind, "float columns never become categorical")
	assert.Equal(t, KindCategorical, tbl.Column("type").Kind)
	assert.Equal(t, []string{"post_translational", "transcriptional"}, tbl.Column("type").Categories)

	assert.Equal(t, KindString, tbl.Column("genesymbol").Kind)
	assert.Equal(t, []any{"7", nil, "9"}, tbl.Column("genesymbol").Values, "nulls stay null")
}

func TestNormalizeDtypes_Idempotent(t *testing.T) {
	once := dtypeTable()
	once.NormalizeDtypes(dtypeSchema)

	twice := dtypeTable()
	twice.NormalizeDtypes(dtypeSchema)
	twice.NormalizeDtypes(dtypeSchema)

	for _, name := range once.Columns() {
		assert.Equal(t, once.Column(name), twice.Column(name), name)
	}
}

func TestSchemaMerge(t *testing.T) {
	base := Schema{Strings: []string{"uniprot", "genesymbol"}}
	merged := base.Merge(Schema{Strings: []string{"source", "uniprot"}, Logical: []string{"is_directed"}})

	assert.Equal(t, []string{"uniprot", "genesymbol", "source"}, merged.Strings)
	assert.Equal(t, []string{"is_directed"}, merged.Logical)
}
