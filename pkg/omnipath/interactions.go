package omnipath

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/internal/logging"
	"github.com/omnipath-client/pkg/evidence"
	"github.com/omnipath-client/pkg/query"
	"github.com/omnipath-client/pkg/table"
)

var interactionsSchema = table.Schema{
	Strings: []string{"source", "target", "dip_url"},
	Logical: []string{
		"is_directed", "is_stimulation", "is_inhibition",
		"consensus_direction", "consensus_stimulation", "consensus_inhibition",
	},
}

// columns holding JSON documents in TSV responses
var jsonColumns = []string{"extra_attrs", evidence.Column}

var (
	regulonParams  = []string{"tfregulons_levels", "tfregulons_methods"}
	dorotheaParams = []string{"dorothea_levels", "dorothea_methods"}
	commonFilter   = append(append([]string{}, dorotheaParams...), regulonParams...)
)

// Preset is a named selection of interaction datasets
type Preset struct {
	Name     string
	Datasets []domain.InteractionDataset
	// parameters that make no sense for the datasets and are hidden from Params
	hide []string
	// adds "type" to the requested fields
	withType bool
}

// Dataset presets
var (
	PathwayExtra = Preset{Name: "PathwayExtra", Datasets: []domain.InteractionDataset{domain.DatasetPathwayExtra}, hide: commonFilter}
	KinaseExtra  = Preset{Name: "KinaseExtra", Datasets: []domain.InteractionDataset{domain.DatasetKinaseExtra}, hide: commonFilter}
	LigRecExtra  = Preset{Name: "LigRecExtra", Datasets: []domain.InteractionDataset{domain.DatasetLigRecExtra}, hide: commonFilter}
	Dorothea     = Preset{Name: "Dorothea", Datasets: []domain.InteractionDataset{domain.DatasetDorothea}, hide: regulonParams}
	CollecTRI    = Preset{Name: "CollecTRI", Datasets: []domain.InteractionDataset{domain.DatasetCollecTRI}}
	TFtarget     = Preset{Name: "TFtarget", Datasets: []domain.InteractionDataset{domain.DatasetTFTarget}, hide: dorotheaParams}
	MiRNA        = Preset{Name: "miRNA", Datasets: []domain.InteractionDataset{domain.DatasetMiRNATarget}, hide: commonFilter}
	TFmiRNA      = Preset{Name: "TFmiRNA", Datasets: []domain.InteractionDataset{domain.DatasetTFmiRNA}, hide: commonFilter}
	LncRNAmRNA   = Preset{Name: "lncRNAmRNA", Datasets: []domain.InteractionDataset{domain.DatasetLncRNAmRNA}, hide: commonFilter}
	OmniPath     = Preset{Name: "OmniPath", Datasets: []domain.InteractionDataset{domain.DatasetOmniPath}}

	Transcriptional = Preset{Name: "Transcriptional", Datasets: []domain.InteractionDataset{
		domain.DatasetDorothea, domain.DatasetTFTarget, domain.DatasetCollecTRI,
	}}
)

// postTranslational are the protein-protein interaction datasets
var postTranslational = []domain.InteractionDataset{
	domain.DatasetOmniPath, domain.DatasetPathwayExtra, domain.DatasetKinaseExtra, domain.DatasetLigRecExtra,
}

// Presets lists the fixed presets by name
var Presets = map[string]Preset{
	PathwayExtra.Name:    PathwayExtra,
	KinaseExtra.Name:     KinaseExtra,
	LigRecExtra.Name:     LigRecExtra,
	Dorothea.Name:        Dorothea,
	CollecTRI.Name:       CollecTRI,
	TFtarget.Name:        TFtarget,
	MiRNA.Name:           MiRNA,
	TFmiRNA.Name:         TFmiRNA,
	LncRNAmRNA.Name:      LncRNAmRNA,
	OmniPath.Name:        OmniPath,
	Transcriptional.Name: Transcriptional,
}

// InteractionsRequest downloads interactions of a fixed set of datasets.
// Setting StrictEvidences in the parameters rebuilds every merged column from
// the evidences of the requested datasets and resources only.
type InteractionsRequest struct {
	*Request
	datasets []domain.InteractionDataset
}

// Interactions returns the request of a preset
func (c *Client) Interactions(p Preset) *InteractionsRequest {
	return c.newInteractions(p.Datasets, p.hide, p.withType)
}

// AllInteractions requests the included datasets (all when empty) minus the
// excluded ones
func (c *Client) AllInteractions(include, exclude []domain.InteractionDataset) (*InteractionsRequest, error) {
	datasets, err := selectDatasets(include, exclude)
	if err != nil {
		return nil, err
	}
	return c.newInteractions(datasets, nil, true), nil
}

// PostTranslational requests the protein-protein datasets minus the excluded ones
func (c *Client) PostTranslational(exclude ...domain.InteractionDataset) (*InteractionsRequest, error) {
	datasets, err := selectDatasets(postTranslational, exclude)
	if err != nil {
		return nil, err
	}
	return c.newInteractions(datasets, nil, false), nil
}

func selectDatasets(include, exclude []domain.InteractionDataset) ([]domain.InteractionDataset, error) {
	if len(include) == 0 {
		include = domain.AllInteractionDatasets()
	}
	excluded := make(map[domain.InteractionDataset]bool, len(exclude))
	for _, d := range exclude {
		excluded[d] = true
	}

	seen := make(map[domain.InteractionDataset]bool, len(include))
	var out []domain.InteractionDataset
	for _, d := range include {
		if excluded[d] || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, domain.NewGuardError("After excluding `%d` datasets, none were left.", len(excluded))
	}
	return out, nil
}

func (c *Client) newInteractions(datasets []domain.InteractionDataset, hide []string, withType bool) *InteractionsRequest {
	r := newRequest(c, query.Interactions, interactionsSchema)
	r.fields = defaultFields
	if withType {
		r.fields = append(append([]string{}, defaultFields...), "type")
	}
	r.hide = append([]string{paramDatasets}, hide...)

	names := datasetNames(datasets)
	want := query.NewSet(names...)
	r.modify = func(p Params) {
		p[paramDatasets] = names
	}
	r.keepRes = func(q ResourceQuery) bool {
		return intersects(q.Datasets, want)
	}
	r.postProcess = append(r.postProcess, decodeJSONColumns, commonPostProcess)

	return &InteractionsRequest{Request: r, datasets: datasets}
}

func datasetNames(datasets []domain.InteractionDataset) []string {
	names := make([]string, len(datasets))
	for i, d := range datasets {
		names[i] = d.String()
	}
	return names
}

// Datasets returns the datasets this request downloads
func (r *InteractionsRequest) Datasets() []domain.InteractionDataset {
	return append([]domain.InteractionDataset(nil), r.datasets...)
}

// Get downloads the interactions. With StrictEvidences the evidences are
// requested as JSON and restricted to the request's datasets and resources.
func (r *InteractionsRequest) Get(ctx context.Context, params Params) (*table.Table, error) {
	p := params.clone()
	if !p.flag(StrictEvidences) {
		return r.Request.Get(ctx, p)
	}

	p.inject(paramFields, evidence.Column)
	p[paramFormat] = domain.FormatJSON
	var resources []string
	if raw, ok := p[paramResources]; ok && raw != nil {
		resources = query.ToSet(raw).Sorted()
	}

	log := logging.ForRequest(r.client.log, r.endpoint).WithField(StrictEvidences, true)
	final, decode, err := r.prepare(ctx, p, log)
	if err != nil {
		return nil, err
	}
	t, err := r.fetch(ctx, final, decode, log)
	if err != nil {
		return nil, err
	}

	out, err := evidence.OnlyFrom(t, datasetNames(r.datasets), resources)
	if err != nil {
		return nil, fmt.Errorf("failed to restrict evidences: %w", err)
	}
	return out, nil
}

// decodeJSONColumns parses the JSON documents TSV responses carry as text
func decodeJSONColumns(t *table.Table) (*table.Table, error) {
	for _, name := range jsonColumns {
		c := t.Column(name)
		if c == nil || c.Kind == table.KindObject {
			continue
		}
		values := make([]any, c.Len())
		for i := range c.Values {
			s, ok := c.String(i)
			if !ok {
				continue
			}
			dec := json.NewDecoder(bytes.NewReader([]byte(s)))
			dec.UseNumber()
			if err := dec.Decode(&values[i]); err != nil {
				return nil, fmt.Errorf("failed to decode %s of row %d: %w", name, i, err)
			}
		}
		if err := t.Set(name, table.KindObject, values); err != nil {
			return nil, err
		}
	}
	return t, nil
}
