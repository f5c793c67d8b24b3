package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynonyms(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"cat", []string{"cat", "cats"}},
		{"dogs", []string{"dog", "dogs"}},
		{"datasets", []string{"dataset", "datasets"}},
		{"genesymbols", []string{"genesymbol", "genesymbols"}},
		{"organism", []string{"organism", "organisms"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Synonyms(tt.name))
		})
	}
}
