package omnipath

import (
	"context"
	"fmt"
	"strings"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/pkg/query"
	"github.com/omnipath-client/pkg/table"
)

const componentsColumn = "components_genesymbols"

// ComplexesRequest downloads protein complexes
type ComplexesRequest struct {
	*Request
}

// Complexes returns the complexes request
func (c *Client) Complexes() *ComplexesRequest {
	r := newRequest(c, query.Complexes, table.Schema{
		Strings:     []string{"name", "components", componentsColumn, "stoichiometry", "references", "identifiers"},
		Categorical: []string{"sources"},
	})
	r.drop = []string{"organism", paramOrganisms, paramGenesymbols}
	r.postProcess = append(r.postProcess, commonPostProcess)
	return &ComplexesRequest{Request: r}
}

// ComplexGenes returns the complexes any of genes participates in, or with
// totalMatch only those made entirely of genes. A nil complexes table is
// downloaded first.
func (r *ComplexesRequest) ComplexGenes(ctx context.Context, genes []string, complexes *table.Table, totalMatch bool) (*table.Table, error) {
	wanted := query.NewSet(genes...)
	if len(wanted) == 0 {
		return nil, domain.NewValidationError("genes", "no genes have been selected", genes)
	}

	if complexes == nil {
		r.client.log.Info("Fetching complexes from the server")
		var err error
		if complexes, err = r.Get(ctx, nil); err != nil {
			return nil, err
		}
	}
	if complexes.Len() == 0 {
		r.client.log.Warn("Complexes are empty")
		return complexes, nil
	}

	col := complexes.Column(componentsColumn)
	if col == nil {
		return nil, fmt.Errorf("unable to find `%s` in `%v`", componentsColumn, complexes.Columns())
	}

	return complexes.Filter(func(row int) bool {
		s, ok := col.String(row)
		if !ok {
			return false
		}
		members := strings.Split(s, "_")
		for _, m := range members {
			if totalMatch != wanted.Has(m) {
				return !totalMatch
			}
		}
		return totalMatch
	}), nil
}
