// sdk.go
// ------
// The sdk.go file contains the Bridge struct, the entry point of the SDK.
//
// A Bridge is bound to a JSONAPI base URL, an injected Transport and settings merged
// over the defaults. Dispatch translates one data-provider operation into a single
// HTTP request, hands it to the Transport and unwraps the JSONAPI envelope of the
// response. The Bridge keeps no per-call state, so one instance may serve any number
// of concurrent calls.
package jsonapibridge

import (
	"context"
	"maps"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Bridge struct {
	apiURL    string
	settings  *Settings
	transport Transport

	logger logrus.FieldLogger
	debug  bool
}

// NewBridge returns a Bridge for apiURL. userSettings may be nil; otherwise it is
// deep-merged over DefaultSettings().
func NewBridge(apiURL string, transport Transport, userSettings *Settings) (*Bridge, error) {
	apiURL = strings.TrimRight(apiURL, "/")
	if apiURL == "" {
		return nil, errors.New("api url is required")
	}
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	settings, err := MergeSettings(userSettings)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return &Bridge{
		apiURL:    apiURL,
		settings:  settings,
		transport: transport,
		logger:    logger,
	}, nil
}

// SetLogger replaces the logger used for debug output. The Bridge never changes
// the logger's level, so debug lines still pass through its own filtering.
func (b *Bridge) SetLogger(logger logrus.FieldLogger) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	b.logger = logger
}

// SetDebug enables or disables debug logging for the Bridge.
func (b *Bridge) SetDebug(enabled bool) {
	b.debug = enabled
}

// Settings returns a copy of the merged settings.
func (b *Bridge) Settings() Settings {
	s := *b.settings
	s.Headers = b.settings.requestHeaders()
	s.FilterModes = maps.Clone(b.settings.FilterModes)
	return s
}

// Dispatch performs one operation against resource. An unsupported kind or invalid
// params fail before the Transport is called. Transport errors are returned as-is.
func (b *Bridge) Dispatch(ctx context.Context, kind OperationKind, resource string, params Params) (*Result, error) {
	req, err := b.BuildRequest(kind, resource, params)
	if err != nil {
		return nil, err
	}

	log := b.logger.WithFields(logrus.Fields{
		"kind":     kind,
		"resource": resource,
		"method":   req.Method,
	})
	b.debugf(log, "sending request to %s", req.Endpoint)

	resp, err := b.transport.ExecuteRequest(ctx, req)
	if err != nil {
		b.debugf(log.WithError(err), "transport failed")
		return nil, err
	}
	if resp == nil {
		return nil, errors.Errorf("%s: transport returned no response", kind)
	}
	if !resp.Success() {
		b.debugf(log, "unexpected status %d", resp.StatusCode)
		return nil, &StatusError{
			Method:     req.Method,
			Endpoint:   req.Endpoint,
			StatusCode: resp.StatusCode,
			Body:       resp.Data,
		}
	}

	result, err := b.ParseResponse(kind, params, resp)
	if err != nil {
		return nil, err
	}
	b.debugf(log, "request succeeded with status %d", resp.StatusCode)
	return result, nil
}

// debugf logs at debug level when debug mode is enabled.
func (b *Bridge) debugf(log logrus.FieldLogger, format string, args ...any) {
	if b.debug {
		log.Debugf(format, args...)
	}
}

func (b *Bridge) GetList(ctx context.Context, resource string, pagination Pagination, filter *Filter, sort *Sort) (*Result, error) {
	return b.Dispatch(ctx, OpGetList, resource, Params{Pagination: pagination, Filter: filter, Sort: sort})
}

func (b *Bridge) GetOne(ctx context.Context, resource, id string) (*Result, error) {
	return b.Dispatch(ctx, OpGetOne, resource, Params{ID: id})
}

func (b *Bridge) Create(ctx context.Context, resource string, data map[string]any) (*Result, error) {
	return b.Dispatch(ctx, OpCreate, resource, Params{Data: data})
}

func (b *Bridge) Update(ctx context.Context, resource, id string, data map[string]any) (*Result, error) {
	return b.Dispatch(ctx, OpUpdate, resource, Params{ID: id, Data: data})
}

func (b *Bridge) Delete(ctx context.Context, resource, id string) (*Result, error) {
	return b.Dispatch(ctx, OpDelete, resource, Params{ID: id})
}

func (b *Bridge) GetMany(ctx context.Context, resource string, ids []string) (*Result, error) {
	return b.Dispatch(ctx, OpGetMany, resource, Params{IDs: ids})
}

// GetManyReference fetches the resource records whose target field equals id.
func (b *Bridge) GetManyReference(ctx context.Context, resource, target, id string) (*Result, error) {
	return b.Dispatch(ctx, OpGetManyReference, resource, Params{Target: target, ID: id})
}
