package query

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/internal/logging"
	"github.com/sirupsen/logrus"
)

// Set is a set of parameter values as sent to the server
type Set map[string]struct{}

// NewSet builds a set from values
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in ascending order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the members of s also present in other
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for v := range s {
		if other.Has(v) {
			out[v] = struct{}{}
		}
	}
	return out
}

// Validate coerces raw to a set of strings and checks it against p's valid set.
// A nil raw or an empty collection yields a nil set, leaving the parameter out. When p has no valid set the coerced values pass
// through; otherwise the intersection is returned, and an empty intersection
// is a *domain.ValidationError.
func Validate(p Parameter, raw any) (Set, error) {
	return validate(p, raw, nil)
}

func validate(p Parameter, raw any, logger *logrus.Logger) (Set, error) {
	log := logging.OrDiscard(logger).WithField("parameter", p.Name)

	needle := ToSet(raw)
	if len(needle) == 0 {
		return nil, nil
	}
	if p.Valid == nil {
		log.Debug("No valid values known, skipping validation")
		return needle, nil
	}

	res := needle.Intersect(p.Valid)
	if len(res) == 0 {
		return nil, domain.NewValidationError(p.Name,
			fmt.Sprintf("no valid options found in `%v`, valid options are `%v`", needle.Sorted(), p.Valid.Sorted()),
			raw,
		)
	}
	if len(res) < len(needle) {
		log.WithField("remaining", res.Sorted()).Warn("Encountered invalid values, dropping them")
	}
	return res, nil
}

// ToSet converts a scalar or collection to a set of strings. Booleans become
// "1"/"0" and values implementing fmt.Stringer use their String form.
func ToSet(raw any) Set {
	if raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case Set:
		return NewSet(v.Sorted()...)
	case map[string]struct{}:
		return ToSet(Set(v))
	case map[string]bool:
		out := make(Set, len(v))
		for k, ok := range v {
			if ok {
				out[k] = struct{}{}
			}
		}
		return out
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if _, ok := raw.(fmt.Stringer); ok {
			return NewSet(scalarString(raw))
		}
		out := make(Set, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[scalarString(rv.Index(i).Interface())] = struct{}{}
		}
		return out
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
	}
	return NewSet(scalarString(raw))
}

// scalarString renders one value the way the server expects it
func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		if val {
			return "1"
		}
		return "0"
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
