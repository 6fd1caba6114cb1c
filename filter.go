package jsonapibridge

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FilterMode selects how a filter term is rendered on the wire.
type FilterMode string

const (
	// FilterExact emits the value verbatim. Used for booleans and identity fields.
	FilterExact FilterMode = "exact"
	// FilterContains prefixes the value with ":", which the backend reads as a
	// substring match.
	FilterContains FilterMode = "contains"
	// FilterExcludes emits the bare value for an exclusion match.
	FilterExcludes FilterMode = "excludes"
)

// ExcludesSentinel marks an exclusion in legacy react-admin filter values.
const ExcludesSentinel = "!:"

const containsMarker = ":"

// FilterValue is a filter operand tagged with its match mode.
type FilterValue struct {
	Mode  FilterMode
	Value any
}

func Exact(v any) FilterValue {
	return FilterValue{Mode: FilterExact, Value: v}
}

func Contains(v string) FilterValue {
	return FilterValue{Mode: FilterContains, Value: v}
}

func Excludes(v string) FilterValue {
	return FilterValue{Mode: FilterExcludes, Value: v}
}

// ParseFilterValue converts an untyped react-admin filter value into a tagged one:
// booleans match exactly, strings carrying the "!:" sentinel become exclusions of
// the remainder, other strings become substring matches and any other scalar
// matches exactly.
func ParseFilterValue(raw any) FilterValue {
	switch v := raw.(type) {
	case bool:
		return Exact(v)
	case string:
		if rest, ok := strings.CutPrefix(v, ExcludesSentinel); ok {
			return Excludes(rest)
		}
		return Contains(v)
	default:
		return Exact(v)
	}
}

// render formats the value for a filter[field] term. mode overrides the value's
// own mode when non-empty. Only scalar values can be rendered.
func (v FilterValue) render(mode FilterMode) (string, error) {
	if mode == "" {
		mode = v.Mode
	}
	if v.Value == nil {
		return "", errors.New("value is nil")
	}
	s, err := cast.ToStringE(v.Value)
	if err != nil {
		return "", errors.Errorf("value of type %T is not a scalar", v.Value)
	}
	if mode == FilterContains {
		return containsMarker + s, nil
	}
	return s, nil
}

// Filter is an insertion-ordered set of field filters. The zero value is an
// empty filter.
type Filter struct {
	terms *orderedmap.OrderedMap[string, FilterValue]
}

func NewFilter() *Filter {
	return &Filter{terms: orderedmap.New[string, FilterValue]()}
}

// FilterFromMap builds a Filter from legacy untyped values using ParseFilterValue.
// Fields are added in lexical order since map iteration order is unspecified.
func FilterFromMap(values map[string]any) *Filter {
	fields := make([]string, 0, len(values))
	for field := range values {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	f := NewFilter()
	for _, field := range fields {
		f.Set(field, ParseFilterValue(values[field]))
	}
	return f
}

// Set adds or replaces the filter on field. Replacing keeps the original position.
func (f *Filter) Set(field string, v FilterValue) *Filter {
	if f.terms == nil {
		f.terms = orderedmap.New[string, FilterValue]()
	}
	f.terms.Set(field, v)
	return f
}

func (f *Filter) Get(field string) (FilterValue, bool) {
	if f == nil || f.terms == nil {
		return FilterValue{}, false
	}
	return f.terms.Get(field)
}

func (f *Filter) Len() int {
	if f == nil || f.terms == nil {
		return 0
	}
	return f.terms.Len()
}

// Each calls fn for every filter in insertion order.
func (f *Filter) Each(fn func(field string, v FilterValue)) {
	if f == nil || f.terms == nil {
		return
	}
	for pair := f.terms.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}
