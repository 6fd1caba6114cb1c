package jsonapibridge

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

type responseDocument struct {
	Data json.RawMessage `json:"data"`
	Meta *responseMeta   `json:"meta"`
}

type responseMeta struct {
	Page map[string]any `json:"page"`
}

type responseResource struct {
	ID            any            `json:"id"`
	Type          string         `json:"type"`
	Attributes    map[string]any `json:"attributes"`
	Relationships map[string]any `json:"relationships"`
}

// ParseResponse unwraps a successful response into the normalized result for kind.
// DELETE echoes params.ID and never reads the body.
func (b *Bridge) ParseResponse(kind OperationKind, params Params, resp *NormalizedResponse) (*Result, error) {
	if !kind.Valid() {
		return nil, unsupported(kind)
	}
	if resp == nil {
		return nil, errors.Errorf("%s: no response to parse", kind)
	}
	if kind == OpDelete {
		return &Result{Data: Record{"id": params.ID}}, nil
	}

	var doc responseDocument
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return nil, errors.Wrapf(err, "%s: decode response", kind)
	}
	keep := b.keepRelationships(kind)

	switch kind {
	case OpGetList:
		records, err := decodeCollection(kind, doc.Data, keep, false)
		if err != nil {
			return nil, err
		}
		total, found, err := doc.total(b.settings.Total)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: decode total", kind)
		}
		if !found {
			total = 0
		}
		return &Result{Data: records, Total: intPtr(total)}, nil

	case OpGetMany:
		records, err := decodeCollection(kind, doc.Data, keep, false)
		if err != nil {
			return nil, err
		}
		total, found, err := doc.total(b.settings.Total)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: decode total", kind)
		}
		if !found {
			return nil, errors.Wrapf(ErrMissingTotal, "%s: meta.page.%s", kind, b.settings.Total)
		}
		return &Result{Data: records, Total: intPtr(total)}, nil

	case OpGetManyReference:
		records, err := decodeCollection(kind, doc.Data, keep, true)
		if err != nil {
			return nil, err
		}
		return &Result{Data: records, Total: intPtr(len(records))}, nil

	case OpGetOne, OpCreate, OpUpdate:
		record, err := decodeSingle(kind, doc.Data, keep)
		if err != nil {
			return nil, err
		}
		return &Result{Data: record}, nil
	}

	return nil, unsupported(kind)
}

func (b *Bridge) keepRelationships(kind OperationKind) bool {
	switch b.settings.Relationships {
	case RelationshipsKeep:
		return true
	case RelationshipsDrop:
		return false
	}
	return kind == OpGetList || kind == OpGetMany || kind == OpGetOne
}

// total looks up meta.page[key]. found is false when meta, page or key is absent.
func (d *responseDocument) total(key string) (total int, found bool, err error) {
	if d.Meta == nil || d.Meta.Page == nil {
		return 0, false, nil
	}
	raw, ok := d.Meta.Page[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	total, err = cast.ToIntE(raw)
	if err != nil {
		return 0, true, err
	}
	return total, true, nil
}

func decodeCollection(kind OperationKind, data json.RawMessage, keepRelationships, idWins bool) ([]Record, error) {
	var resources []responseResource
	if len(data) > 0 {
		if err := json.Unmarshal(data, &resources); err != nil {
			return nil, errors.Wrapf(err, "%s: decode data", kind)
		}
	}
	records := make([]Record, 0, len(resources))
	for _, res := range resources {
		records = append(records, res.record(keepRelationships, idWins))
	}
	return records, nil
}

func decodeSingle(kind OperationKind, data json.RawMessage, keepRelationships bool) (Record, error) {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, errors.Errorf("%s: response has no data", kind)
	}
	var res responseResource
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrapf(err, "%s: decode data", kind)
	}
	return res.record(keepRelationships, false), nil
}

// record flattens the resource. Attributes shadow "id" unless idWins is set.
func (r responseResource) record(keepRelationships, idWins bool) Record {
	rec := make(Record, len(r.Attributes)+2)
	rec["id"] = r.ID
	for k, v := range r.Attributes {
		rec[k] = v
	}
	if keepRelationships && r.Relationships != nil {
		rec["relationships"] = r.Relationships
	}
	if idWins {
		rec["id"] = r.ID
	}
	return rec
}
