package jsonapibridge

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/opengovern/jsonapi-bridge/internal/querystring"
)

// requestDocument is the JSONAPI envelope sent by CREATE and UPDATE.
type requestDocument struct {
	Data requestResource `json:"data"`
}

type requestResource struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

// BuildRequest translates an operation into the request the Transport will send.
// It performs no I/O.
func (b *Bridge) BuildRequest(kind OperationKind, resource string, params Params) (*NormalizedRequest, error) {
	if !kind.Valid() {
		return nil, unsupported(kind)
	}
	if err := validateParams(kind, resource, params); err != nil {
		return nil, err
	}

	req := &NormalizedRequest{
		Method:  http.MethodGet,
		Headers: b.settings.requestHeaders(),
	}
	collection := b.apiURL + "/" + resource

	switch kind {
	case OpGetList:
		q, err := b.listQuery(params)
		if err != nil {
			return nil, invalidParams(kind, "%v", err)
		}
		req.Endpoint = collection + "?" + q.Encode()

	case OpGetOne:
		req.Endpoint = memberURL(collection, params.ID)

	case OpCreate:
		req.Method = http.MethodPost
		req.Endpoint = collection
		body, err := encodeDocument(requestResource{Type: resource, Attributes: params.Data})
		if err != nil {
			return nil, errors.Wrapf(err, "%s: encode body", kind)
		}
		req.Body = body

	case OpUpdate:
		req.Method = http.MethodPatch
		req.Endpoint = memberURL(collection, params.ID)
		attributes := maps.Clone(params.Data)
		delete(attributes, "relationships")
		body, err := encodeDocument(requestResource{ID: params.ID, Type: resource, Attributes: attributes})
		if err != nil {
			return nil, errors.Wrapf(err, "%s: encode body", kind)
		}
		req.Body = body

	case OpDelete:
		req.Method = http.MethodDelete
		req.Endpoint = memberURL(collection, params.ID)

	case OpGetMany:
		var q querystring.Builder
		for _, id := range params.IDs {
			q.Add("filter[id]", id)
		}
		req.Endpoint = collection + "?" + q.Encode()

	case OpGetManyReference:
		var q querystring.Builder
		q.Add(filterKey(params.Target), params.ID)
		req.Endpoint = collection + "?" + q.Encode()

	default:
		return nil, unsupported(kind)
	}

	return req, nil
}

// listQuery renders pagination, then filters in insertion order, then sort.
// The first filter whose value cannot be rendered fails the whole query.
func (b *Bridge) listQuery(params Params) (*querystring.Builder, error) {
	var q querystring.Builder

	page, perPage := params.Pagination.Page, params.Pagination.PerPage
	q.Add("page[offset]", strconv.Itoa((page-1)*perPage))
	q.Add("page[limit]", strconv.Itoa(perPage))

	var renderErr error
	params.Filter.Each(func(field string, v FilterValue) {
		if renderErr != nil {
			return
		}
		s, err := v.render(b.settings.filterMode(field))
		if err != nil {
			renderErr = errors.Wrapf(err, "filter %s", field)
			return
		}
		q.Add(filterKey(field), s)
	})
	if renderErr != nil {
		return nil, renderErr
	}

	if params.Sort != nil {
		q.Add("sort", sortTerm(*params.Sort))
	}
	return &q, nil
}

// sortTerm follows the JSON:API convention: a leading "-" sorts descending.
func sortTerm(s Sort) string {
	if s.Order == SortDesc {
		return "-" + s.Field
	}
	return s.Field
}

func filterKey(field string) string {
	return fmt.Sprintf("filter[%s]", field)
}

func memberURL(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}

func encodeDocument(res requestResource) ([]byte, error) {
	if res.Attributes == nil {
		res.Attributes = map[string]any{}
	}
	return json.Marshal(requestDocument{Data: res})
}

func validateParams(kind OperationKind, resource string, p Params) error {
	if validate.Var(resource, "required") != nil {
		return invalidParams(kind, "resource is required")
	}

	switch kind {
	case OpGetList:
		if err := validate.Struct(p.Pagination); err != nil {
			return invalidParams(kind, "pagination: %v", err)
		}
		if p.Sort != nil {
			if err := validate.Struct(p.Sort); err != nil {
				return invalidParams(kind, "sort: %v", err)
			}
		}
	case OpGetOne, OpUpdate, OpDelete:
		if validate.Var(p.ID, "required") != nil {
			return invalidParams(kind, "id is required")
		}
	case OpGetMany:
		if validate.Var(p.IDs, "min=1,dive,required") != nil {
			return invalidParams(kind, "ids must be a non-empty list of non-empty ids")
		}
	case OpGetManyReference:
		if validate.Var(p.Target, "required") != nil {
			return invalidParams(kind, "target is required")
		}
		if validate.Var(p.ID, "required") != nil {
			return invalidParams(kind, "id is required")
		}
	}
	return nil
}
