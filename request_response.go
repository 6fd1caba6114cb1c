package jsonapibridge

import "net/http"

type NormalizedRequest struct {
	Method   string
	Endpoint string
	Headers  map[string]string
	Body     []byte
}

type NormalizedResponse struct {
	StatusCode int
	Headers    map[string]string
	Data       []byte
}

// Success reports whether the status code is in the 2xx range.
func (r *NormalizedResponse) Success() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Record is a flattened resource: its id, its attributes and, depending on the
// operation and the relationships policy, its relationships.
type Record map[string]any

// ID returns the record's "id" entry.
func (r Record) ID() any {
	return r["id"]
}

// Result is the normalized outcome of a dispatched operation. Data holds a Record
// for single-resource operations and a []Record for collection operations.
type Result struct {
	Data  any  `json:"data"`
	Total *int `json:"total,omitempty"`
}

// Record returns the single record carried by the result.
func (r *Result) Record() (Record, bool) {
	rec, ok := r.Data.(Record)
	return rec, ok
}

// Records returns the record collection carried by the result.
func (r *Result) Records() ([]Record, bool) {
	recs, ok := r.Data.([]Record)
	return recs, ok
}

func intPtr(i int) *int {
	return &i
}
