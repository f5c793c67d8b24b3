package omnipath

import (
	"context"
	"fmt"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/internal/logging"
	"github.com/omnipath-client/pkg/query"
	"github.com/omnipath-client/pkg/table"
	"github.com/sirupsen/logrus"
)

// AnnotationChunkSize is the number of proteins sent per annotations request
const AnnotationChunkSize = 600

// AnnotationsRequest downloads protein annotations. Without proteins or
// resources the full dataset (about 1GB) is only fetched when
// ForceFullDownload is set in the parameters.
type AnnotationsRequest struct {
	*Request
}

// Annotations returns the annotations request
func (c *Client) Annotations() *AnnotationsRequest {
	r := newRequest(c, query.Annotations, table.Schema{
		Strings:     []string{"source", "value"},
		Categorical: []string{"entity_type", "label", "source"},
	})
	r.drop = []string{"organism", paramOrganisms}
	return &AnnotationsRequest{Request: r}
}

// Get downloads the annotations of the proteins in params, splitting them in
// chunks of AnnotationChunkSize and concatenating the results
func (r *AnnotationsRequest) Get(ctx context.Context, params Params) (*table.Table, error) {
	p := params.clone()
	force := p.flag(ForceFullDownload)

	proteins := query.ToSet(p[paramProteins])
	resources := query.ToSet(p[paramResources])
	if len(proteins) == 0 && len(resources) == 0 && !force {
		return nil, domain.NewGuardError("Please specify `%s=true` in order to download the full dataset.", ForceFullDownload)
	}

	log := logging.ForRequest(r.client.log, r.endpoint)
	resInfo := "all resources"
	if len(resources) > 0 {
		resInfo = fmt.Sprintf("the following resources: `%v`", resources.Sorted())
	}

	if len(proteins) == 0 {
		delete(p, paramProteins)
		log.Infof("Downloading annotations for all proteins from %s", resInfo)
		return r.getChunk(ctx, p, log)
	}

	sorted := proteins.Sorted()
	log.WithField("proteins", len(sorted)).Infof("Downloading annotations in chunks of %d from %s", AnnotationChunkSize, resInfo)

	var parts []*table.Table
	for start := 0; start < len(sorted); start += AnnotationChunkSize {
		end := start + AnnotationChunkSize
		if end > len(sorted) {
			end = len(sorted)
		}
		chunk := p.clone()
		chunk[paramProteins] = sorted[start:end]

		t, err := r.getChunk(ctx, chunk, log)
		if err != nil {
			return nil, err
		}
		parts = append(parts, t)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return table.Concat(parts...), nil
}

func (r *AnnotationsRequest) getChunk(ctx context.Context, params Params, log *logrus.Entry) (*table.Table, error) {
	final, decode, err := r.prepare(ctx, params, log)
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, final, decode, log)
}
