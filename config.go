// config.go
// ---------
// Settings controls the headers sent with every request, the meta.page key the
// backend reports collection totals under, the declared per-field filter policy and
// the relationships policy applied while unwrapping responses.
//
// Caller settings are deep-merged over DefaultSettings(): caller values win on
// conflicting keys, maps merge key by key and empty caller fields keep the default.
package jsonapibridge

import (
	"maps"
	"net/http"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	MediaType       = "application/vnd.api+json"
	DefaultTotalKey = "total"
)

// RelationshipPolicy decides which normalized records carry "relationships".
type RelationshipPolicy string

const (
	// RelationshipsCompat keeps relationships on GET_LIST, GET_MANY and GET_ONE
	// records and drops them from CREATE, UPDATE and GET_MANY_REFERENCE records.
	RelationshipsCompat RelationshipPolicy = "compat"
	// RelationshipsKeep keeps relationships on every record the backend sent them for.
	RelationshipsKeep RelationshipPolicy = "keep"
	// RelationshipsDrop never emits relationships.
	RelationshipsDrop RelationshipPolicy = "drop"
)

type Settings struct {
	Headers       map[string]string
	Total         string                `validate:"required"`
	FilterModes   map[string]FilterMode `validate:"dive,oneof=exact contains excludes"`
	Relationships RelationshipPolicy    `validate:"oneof=compat keep drop"`
}

var validate = validator.New()

// DefaultSettings returns a fresh copy of the built-in settings.
func DefaultSettings() *Settings {
	return &Settings{
		Headers: map[string]string{
			"Accept":       MediaType,
			"Content-Type": MediaType,
		},
		Total: DefaultTotalKey,
		FilterModes: map[string]FilterMode{
			"id": FilterExact,
		},
		Relationships: RelationshipsCompat,
	}
}

// MergeSettings deep-merges user over DefaultSettings() and validates the result.
// user is not modified.
func MergeSettings(user *Settings) (*Settings, error) {
	settings := DefaultSettings()
	if user != nil {
		override := *user
		override.Headers = canonicalHeaders(user.Headers)
		if err := mergo.Merge(settings, override, mergo.WithOverride); err != nil {
			return nil, errors.Wrap(err, "merge settings")
		}
	}
	if err := validate.Struct(settings); err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}
	return settings, nil
}

func canonicalHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[http.CanonicalHeaderKey(k)] = v
	}
	return out
}

func (s *Settings) requestHeaders() map[string]string {
	return maps.Clone(s.Headers)
}

func (s *Settings) filterMode(field string) FilterMode {
	return s.FilterModes[field]
}
