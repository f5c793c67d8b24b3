package omnipath

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/omnipath-client/pkg/query"
	"github.com/sirupsen/logrus"
)

// Params holds the query parameters of one call. Values may be strings,
// numbers, booleans, collections or anything implementing fmt.Stringer.
type Params map[string]any

// Keys understood by the client itself rather than the server
const (
	// ForceFullDownload allows an annotations request without proteins or resources
	ForceFullDownload = "force_full_download"
	// StrictEvidences restricts interaction evidences to the requested datasets and resources
	StrictEvidences = "strict_evidences"
)

// Common parameter names
const (
	paramFields      = "fields"
	paramFormat      = "format"
	paramLicense     = "license"
	paramPassword    = "password"
	paramOrganisms   = "organisms"
	paramDatasets    = "datasets"
	paramProteins    = "proteins"
	paramResources   = "resources"
	paramGenesymbols = "genesymbols"
)

// clone returns a shallow copy so callers never see the pipeline's edits
func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// pop removes and returns the first key present
func (p Params) pop(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok {
			delete(p, k)
			return v, true
		}
	}
	return nil, false
}

// inject unions values into key, keeping what the caller passed
func (p Params) inject(key string, values ...string) {
	if len(values) == 0 {
		return
	}
	merged := query.NewSet(values...)
	if old, ok := p[key]; ok && old != nil {
		for v := range query.ToSet(old) {
			merged[v] = struct{}{}
		}
	}
	p[key] = merged
}

// flag reads a client-side boolean switch
func (p Params) flag(key string) bool {
	v, ok := p.pop(key)
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	}
	return false
}

// finalize turns validated values into their wire form. Collections are
// sorted and comma joined; unsupported values are dropped with a warning.
func finalize(params map[string]any, log logrus.FieldLogger) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		s, ok := wireValue(v)
		if !ok {
			if v != nil {
				log.WithField("parameter", k).Warnf("Unable to process parameter value %v, ignoring", v)
			}
			continue
		}
		out[k] = s
	}
	return out
}

func wireValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		if val {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case query.Set:
		return strings.Join(val.Sorted(), ","), true
	case fmt.Stringer:
		return val.String(), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s, ok := wireValue(rv.Index(i).Interface())
			if !ok {
				return "", false
			}
			items = append(items, s)
		}
		sort.Strings(items)
		return strings.Join(items, ","), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	}
	return "", false
}
