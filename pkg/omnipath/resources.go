package omnipath

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/pkg/query"
)

func init() {
	gob.Register(Resources{})
}

const resourcesEndpoint = "resources"

// StringList accepts either a JSON string or an array of strings
type StringList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// ResourceQuery describes how a resource contributes to one endpoint
type ResourceQuery struct {
	Datasets          StringList `json:"datasets,omitempty"`
	GenericCategories StringList `json:"generic_categories,omitempty"`
}

// Resource is one entry of the resources document
type Resource struct {
	Queries map[string]ResourceQuery `json:"queries"`
}

// Resources maps resource names to their description
type Resources map[string]Resource

// Resources downloads the resources document, once per client unless the
// cache is cleared
func (c *Client) Resources(ctx context.Context) (Resources, error) {
	c.resMu.Lock()
	defer c.resMu.Unlock()

	if c.resources != nil {
		return c.resources, nil
	}

	c.log.Debug("Fetching resources")
	v, err := c.downloader.MaybeDownload(ctx, resourcesEndpoint, decodeResources,
		map[string]string{paramFormat: string(domain.FormatJSON)})
	if err != nil {
		return nil, err
	}
	res, ok := v.(Resources)
	if !ok {
		return nil, fmt.Errorf("expected resources document, got %T", v)
	}
	c.resources = res
	return res, nil
}

func decodeResources(r io.Reader) (any, error) {
	var res Resources
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, err
	}
	return res, nil
}

// intersects reports whether any of have is in want
func intersects(have []string, want query.Set) bool {
	for _, h := range have {
		if want.Has(h) {
			return true
		}
	}
	return false
}
