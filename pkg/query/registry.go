// Package query holds the per-endpoint registry of accepted request
// parameters and validates user supplied values against it.
package query

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/internal/logging"
	"github.com/omnipath-client/pkg/downloader"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Endpoint names
const (
	Enzsub       = "enzsub"
	Interactions = "interactions"
	Complexes    = "complexes"
	Annotations  = "annotations"
	Intercell    = "intercell"
)

// Where an endpoint's parameters came from
const (
	SourceServer = "server"
	SourceStatic = "static"
)

// Endpoints lists every endpoint with a parameter registry
var Endpoints = []string{Annotations, Complexes, Enzsub, Interactions, Intercell}

const noSuchQuery = "no such query available"

//go:embed static.yaml
var staticYAML []byte

// Parameter describes one accepted request parameter. Valid is nil when any
// value is accepted.
type Parameter struct {
	Name  string
	Valid Set
	Doc   string
	Type  string
}

// Endpoint is the parameter registry of one endpoint. It is immutable.
type Endpoint struct {
	Name   string
	Source string

	params   map[string]Parameter
	synonyms map[string]string
	log      *logrus.Logger
}

func newEndpoint(name, source string, params []Parameter, logger *logrus.Logger) *Endpoint {
	e := &Endpoint{
		Name:     name,
		Source:   source,
		params:   make(map[string]Parameter, len(params)),
		synonyms: make(map[string]string, 3*len(params)),
		log:      logger,
	}
	for _, p := range params {
		e.params[p.Name] = p
		e.synonyms[p.Name] = p.Name
	}
	for _, p := range params {
		for _, syn := range Synonyms(p.Name) {
			if _, taken := e.synonyms[syn]; !taken {
				e.synonyms[syn] = p.Name
			}
		}
	}
	return e
}

// Lookup resolves a parameter name or one of its synonyms
func (e *Endpoint) Lookup(name string) (Parameter, error) {
	canonical, ok := e.synonyms[strings.ToLower(name)]
	if !ok {
		return Parameter{}, domain.NewValidationError(name,
			fmt.Sprintf("unknown parameter for endpoint `%s`, valid parameters are `%v`", e.Name, e.Names()),
			name,
		)
	}
	return e.params[canonical], nil
}

// Validate resolves name and validates raw against it, returning the
// canonical parameter name and the accepted values
func (e *Endpoint) Validate(name string, raw any) (string, Set, error) {
	p, err := e.Lookup(name)
	if err != nil {
		return "", nil, err
	}
	values, err := validate(p, raw, e.log)
	if err != nil {
		return "", nil, err
	}
	return p.Name, values, nil
}

// Names returns the canonical parameter names, sorted
func (e *Endpoint) Names() []string {
	names := make([]string, 0, len(e.params))
	for n := range e.params {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Params maps every canonical parameter to its valid set, nil meaning any value
func (e *Endpoint) Params() map[string]Set {
	out := make(map[string]Set, len(e.params))
	for n, p := range e.params {
		if p.Valid == nil {
			out[n] = nil
			continue
		}
		out[n] = NewSet(p.Valid.Sorted()...)
	}
	return out
}

type registryEntry struct {
	once     sync.Once
	endpoint *Endpoint
	err      error
}

// Registry builds endpoint registries on first use, asking the server for
// the accepted parameters when autoload is enabled and falling back to the
// embedded table otherwise
type Registry struct {
	opts    domain.Options
	log     *logrus.Logger
	options []downloader.Option

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry creates a registry. Downloader options apply to the probe requests.
func NewRegistry(opts domain.Options, logger *logrus.Logger, options ...downloader.Option) *Registry {
	return &Registry{
		opts:    opts.With(),
		log:     logging.OrDiscard(logger),
		options: options,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the registry of endpoint, populating it once
func (r *Registry) Get(ctx context.Context, endpoint string) (*Endpoint, error) {
	endpoint = strings.ToLower(endpoint)
	if !isEndpoint(endpoint) {
		return nil, domain.NewValidationError("endpoint",
			fmt.Sprintf("unknown endpoint, valid endpoints are `%v`", Endpoints), endpoint)
	}

	r.mu.Lock()
	entry, ok := r.entries[endpoint]
	if !ok {
		entry = &registryEntry{}
		r.entries[endpoint] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		entry.endpoint, entry.err = r.load(ctx, endpoint)
	})
	return entry.endpoint, entry.err
}

func isEndpoint(name string) bool {
	for _, e := range Endpoints {
		if e == name {
			return true
		}
	}
	return false
}

func (r *Registry) load(ctx context.Context, endpoint string) (*Endpoint, error) {
	log := r.log.WithField(logging.FieldEndpoint, endpoint)

	if r.opts.Autoload {
		params, err := r.probe(ctx, endpoint)
		if err == nil {
			log.WithField("parameters", len(params)).Debug("Loaded query parameters from the server")
			return newEndpoint(endpoint, SourceServer, params, r.log), nil
		}
		log.WithError(err).Debug("Unable to load query parameters from the server, using the static table")
	}

	params, err := staticParams(endpoint)
	if err != nil {
		return nil, err
	}
	return newEndpoint(endpoint, SourceStatic, params, r.log), nil
}

// probe asks the server which parameters endpoint accepts
func (r *Registry) probe(ctx context.Context, endpoint string) ([]Parameter, error) {
	opts := r.opts.With(func(o *domain.Options) {
		o.NumRetries = 0
		o.Timeout = o.ProbeTimeout
		o.ProgressBar = false
		o.ChunkSize = 2048
		o.FallbackURLs = nil
	})
	d := downloader.New(opts, nil, r.log, r.options...)

	v, err := d.MaybeDownload(ctx, "queries/"+endpoint, decodeProbe,
		map[string]string{"format": string(domain.FormatJSON)}, downloader.WithoutCache())
	if err != nil {
		return nil, err
	}
	return parseProbe(endpoint, v.(map[string]any))
}

func decodeProbe(r io.Reader) (any, error) {
	var doc map[string]any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func parseProbe(endpoint string, doc map[string]any) ([]Parameter, error) {
	seen := make(map[string]bool, len(doc))
	for k := range doc {
		lower := strings.ToLower(k)
		if seen[lower] {
			return nil, fmt.Errorf("parameter names of `%s` are not unique when lower cased", endpoint)
		}
		seen[lower] = true
	}

	params := make([]Parameter, 0, len(doc))
	for k, value := range doc {
		p := Parameter{Name: strings.ToLower(k)}
		switch v := value.(type) {
		case string:
			if strings.Contains(v, noSuchQuery) {
				return nil, fmt.Errorf("invalid endpoint `%s`", endpoint)
			}
		case []any:
			p.Valid = make(Set, len(v))
			for _, item := range v {
				p.Valid[scalarString(item)] = struct{}{}
			}
		}
		params = append(params, p)
	}
	return params, nil
}

type staticParam struct {
	Type  string   `yaml:"type"`
	Valid []string `yaml:"valid"`
	Doc   string   `yaml:"doc"`
}

var (
	staticOnce  sync.Once
	staticTable map[string][]Parameter
	staticErr   error
)

// staticParams returns the embedded parameter table of endpoint
func staticParams(endpoint string) ([]Parameter, error) {
	staticOnce.Do(func() {
		staticTable, staticErr = parseStatic(staticYAML)
	})
	if staticErr != nil {
		return nil, staticErr
	}
	params, ok := staticTable[endpoint]
	if !ok {
		return nil, fmt.Errorf("no static parameters for endpoint `%s`", endpoint)
	}
	return params, nil
}

func parseStatic(data []byte) (map[string][]Parameter, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse static query table: %w", err)
	}

	out := make(map[string][]Parameter, len(doc))
	for endpoint, node := range doc {
		if strings.HasPrefix(endpoint, "x-") {
			continue
		}
		var raw map[string]staticParam
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse static parameters of %s: %w", endpoint, err)
		}
		params := make([]Parameter, 0, len(raw))
		for name, sp := range raw {
			p := Parameter{Name: name, Type: sp.Type, Doc: sp.Doc}
			if sp.Valid != nil {
				p.Valid = NewSet(sp.Valid...)
			}
			params = append(params, p)
		}
		sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
		out[endpoint] = params
	}
	return out, nil
}
