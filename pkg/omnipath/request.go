package omnipath

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/internal/logging"
	"github.com/omnipath-client/pkg/downloader"
	"github.com/omnipath-client/pkg/evidence"
	"github.com/omnipath-client/pkg/query"
	"github.com/omnipath-client/pkg/table"
	"github.com/sirupsen/logrus"
)

// baseSchema applies to every endpoint
var baseSchema = table.Schema{Strings: []string{"uniprot", "genesymbol"}}

// defaultFields are always requested from these endpoints
var defaultFields = []string{"curation_effort", "references", "sources"}

// Request runs the download pipeline of one endpoint:
// modify, inject fields, convert, validate, finalize, fetch, dtypes, post-process
type Request struct {
	client   *Client
	endpoint string
	schema   table.Schema
	fields   []string

	// dropped from the call before anything else and hidden from Params
	drop []string
	// hidden from Params only
	hide []string

	modify      func(Params)
	postProcess []func(*table.Table) (*table.Table, error)
	keepRes     func(ResourceQuery) bool
}

func newRequest(c *Client, endpoint string, schema table.Schema) *Request {
	return &Request{
		client:   c,
		endpoint: endpoint,
		schema:   baseSchema.Merge(schema),
	}
}

// Endpoint returns the endpoint name
func (r *Request) Endpoint() string { return r.endpoint }

// Schema returns the dtype schema applied to downloaded tables
func (r *Request) Schema() table.Schema { return r.schema }

// Get downloads the endpoint with params. Validation errors abort before any
// network I/O.
func (r *Request) Get(ctx context.Context, params Params) (*table.Table, error) {
	log := logging.ForRequest(r.client.log, r.endpoint)

	final, decode, err := r.prepare(ctx, params, log)
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, final, decode, log)
}

// prepare runs the parameter half of the pipeline and returns the wire
// parameters with the decoder matching the requested format
func (r *Request) prepare(ctx context.Context, params Params, log *logrus.Entry) (map[string]string, downloader.Decoder, error) {
	ep, err := r.client.registry.Get(ctx, r.endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load parameters of %s: %w", r.endpoint, err)
	}

	p := params.clone()
	for _, k := range r.drop {
		delete(p, k)
	}
	if r.modify != nil {
		r.modify(p)
	}

	p.inject(paramFields, r.fields...)

	decode, err := r.convert(ep, p, log)
	if err != nil {
		return nil, nil, err
	}

	password, hasPassword := p.pop(paramPassword)

	validated := make(map[string]any, len(p))
	for name, raw := range p {
		canonical, values, err := ep.Validate(name, raw)
		if err != nil {
			return nil, nil, err
		}
		if values == nil {
			continue
		}
		if prev, ok := validated[canonical].(query.Set); ok {
			for v := range prev {
				values[v] = struct{}{}
			}
		}
		validated[canonical] = values
	}
	if hasPassword && password != nil {
		validated[paramPassword] = password
	}

	final := finalize(validated, log)
	log.WithField("parameters", logging.SanitizeParams(final)).Debug("Request parameters finalized")
	return final, decode, nil
}

// convert maps organism, format, license and password onto their wire names
func (r *Request) convert(ep *query.Endpoint, p Params, log *logrus.Entry) (downloader.Decoder, error) {
	accepts := func(name string) bool {
		_, err := ep.Lookup(name)
		return err == nil
	}

	if raw, ok := p.pop("organism", paramOrganisms); ok && raw != nil {
		org, err := domain.ParseOrganism(raw)
		if err != nil {
			return nil, domain.NewValidationError("organism", err.Error(), raw)
		}
		if accepts(paramOrganisms) {
			p[paramOrganisms] = org
		}
	}

	format := domain.FormatTSV
	if raw, ok := p.pop(paramFormat, "formats"); ok && raw != nil {
		switch f := domain.Format(fmt.Sprint(raw)); f {
		case domain.FormatTSV, domain.FormatJSON:
			format = f
		default:
			log.WithField(paramFormat, raw).Warnf("Invalid format, using `%s`", domain.FormatTSV)
		}
	}
	if accepts(paramFormat) {
		p[paramFormat] = format
	}
	decode := decodeTSV
	if format == domain.FormatJSON {
		decode = decodeJSON
	}

	license, ok := p.pop(paramLicense, "licenses")
	if !ok || license == nil || license == "" {
		license = r.client.opts.License
	}
	if s := fmt.Sprint(license); s != "" {
		l, err := domain.ParseLicense(s)
		if err != nil {
			return nil, domain.NewValidationError(paramLicense, err.Error(), license)
		}
		if accepts(paramLicense) {
			p[paramLicense] = l
		}
	}

	if _, ok := p[paramPassword]; !ok && r.client.opts.Password != "" {
		p[paramPassword] = r.client.opts.Password
	}

	return decode, nil
}

func (r *Request) fetch(ctx context.Context, params map[string]string, decode downloader.Decoder, log *logrus.Entry) (*table.Table, error) {
	log.Info("Downloading data")

	v, err := r.client.downloader.MaybeDownload(ctx, r.endpoint, decode, params)
	if err != nil {
		return nil, err
	}
	t, ok := v.(*table.Table)
	if !ok {
		return nil, fmt.Errorf("expected a table from %s, got %T", r.endpoint, v)
	}

	if r.client.opts.ConvertDtypes {
		t.NormalizeDtypes(r.schema)
	}

	for _, step := range r.postProcess {
		if t, err = step(t); err != nil {
			return nil, fmt.Errorf("failed to post-process %s: %w", r.endpoint, err)
		}
	}

	log.WithFields(logrus.Fields{
		"rows":    t.Len(),
		"columns": t.NumColumns(),
	}).Debug("Download finished")
	return t, nil
}

// Params maps every accepted parameter to its valid values, nil meaning any
// value, leaving out the parameters this request sets itself
func (r *Request) Params(ctx context.Context) (map[string]query.Set, error) {
	ep, err := r.client.registry.Get(ctx, r.endpoint)
	if err != nil {
		return nil, err
	}
	params := ep.Params()
	for _, k := range r.drop {
		delete(params, k)
	}
	for _, k := range r.hide {
		delete(params, k)
	}
	return params, nil
}

// Resources returns the sorted names of the resources serving this endpoint
func (r *Request) Resources(ctx context.Context) ([]string, error) {
	res, err := r.client.Resources(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	for name, info := range res {
		q, ok := info.Queries[r.endpoint]
		if !ok {
			continue
		}
		if r.keepRes != nil && !r.keepRes(q) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// commonPostProcess adds reference and source counts
func commonPostProcess(t *table.Table) (*table.Table, error) {
	if err := joinLists(t, "sources", "references"); err != nil {
		return nil, err
	}
	if err := evidence.StripResourceLabels(t, "references"); err != nil {
		return nil, err
	}
	if err := evidence.CountReferences(t); err != nil {
		return nil, err
	}
	if err := evidence.CountSources(t); err != nil {
		return nil, err
	}
	return t, nil
}

// joinLists turns the arrays JSON responses carry into the ";" separated
// form of TSV responses
func joinLists(t *table.Table, names ...string) error {
	for _, name := range names {
		c := t.Column(name)
		if c == nil || c.Kind != table.KindObject {
			continue
		}
		values := make([]any, c.Len())
		for i, v := range c.Values {
			items, ok := v.([]any)
			if !ok {
				values[i] = v
				continue
			}
			parts := make([]string, len(items))
			for j, item := range items {
				parts[j] = table.FormatValue(item)
			}
			values[i] = strings.Join(parts, ";")
		}
		if err := t.Set(name, table.KindString, values); err != nil {
			return err
		}
	}
	return nil
}

func decodeTSV(r io.Reader) (any, error) {
	t, err := table.ReadTSV(r)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func decodeJSON(r io.Reader) (any, error) {
	t, err := table.ReadJSON(r)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Enzsub returns the enzyme-substrate request
func (c *Client) Enzsub() *Request {
	r := newRequest(c, query.Enzsub, table.Schema{
		Strings:     []string{"enzyme", "substrate"},
		Categorical: []string{"residue_type", "modification"},
	})
	r.fields = defaultFields
	r.postProcess = append(r.postProcess, commonPostProcess)
	return r
}
