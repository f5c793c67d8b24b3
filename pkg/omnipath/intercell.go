package omnipath

import (
	"context"
	"fmt"
	"sort"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/pkg/query"
	"github.com/omnipath-client/pkg/table"
)

const intercellSummaryEndpoint = "intercell_summary"

// IntercellRequest downloads intercellular communication roles
type IntercellRequest struct {
	*Request
}

// Intercell returns the intercell request
func (c *Client) Intercell() *IntercellRequest {
	r := newRequest(c, query.Intercell, table.Schema{
		Categorical: []string{"category", "parent", "database", "scope", "aspect", "source", "entity_type"},
	})
	r.drop = []string{"organism", paramOrganisms, paramGenesymbols}
	r.postProcess = append(r.postProcess, commonPostProcess)
	return &IntercellRequest{Request: r}
}

// ResourcesIn returns the resources falling into any of the generic categories
func (r *IntercellRequest) ResourcesIn(ctx context.Context, genericCategories ...string) ([]string, error) {
	if len(genericCategories) == 0 {
		return nil, domain.NewValidationError("generic_categories", "no generic categories have been selected", genericCategories)
	}
	want := query.NewSet(genericCategories...)

	filtered := *r.Request
	filtered.keepRes = func(q ResourceQuery) bool {
		return intersects(q.GenericCategories, want)
	}
	return filtered.Resources(ctx)
}

// Categories returns the categories of the intercell database
func (r *IntercellRequest) Categories(ctx context.Context) ([]string, error) {
	return r.summary(ctx, "category")
}

// GenericCategories returns the generic (parent) categories of the intercell database
func (r *IntercellRequest) GenericCategories(ctx context.Context) ([]string, error) {
	return r.summary(ctx, "parent")
}

// summary returns the distinct values of col in the intercell summary
func (r *IntercellRequest) summary(ctx context.Context, col string) ([]string, error) {
	v, err := r.client.downloader.MaybeDownload(ctx, intercellSummaryEndpoint, decodeJSON,
		map[string]string{paramFormat: string(domain.FormatJSON)})
	if err != nil {
		return nil, err
	}
	t, ok := v.(*table.Table)
	if !ok {
		return nil, fmt.Errorf("expected a table from %s, got %T", intercellSummaryEndpoint, v)
	}

	c := t.Column(col)
	if c == nil {
		return nil, fmt.Errorf("column `%s` not found in `%v`", col, t.Columns())
	}
	seen := make(map[string]struct{})
	for i := range c.Values {
		if s, ok := c.String(i); ok {
			seen[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
