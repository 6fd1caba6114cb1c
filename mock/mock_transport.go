// Package mock provides a recording Transport for tests.
package mock

import (
	"context"
	"net/http"
	"sync"

	jsonapibridge "github.com/opengovern/jsonapi-bridge"
)

// Transport records every request and answers with Response, or Err when set.
type Transport struct {
	Response *jsonapibridge.NormalizedResponse
	Err      error

	mu       sync.Mutex
	requests []*jsonapibridge.NormalizedRequest
}

// NewTransport returns a Transport answering 200 with body.
func NewTransport(body string) *Transport {
	return &Transport{
		Response: &jsonapibridge.NormalizedResponse{
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"content-type": jsonapibridge.MediaType},
			Data:       []byte(body),
		},
	}
}

func (m *Transport) ExecuteRequest(_ context.Context, req *jsonapibridge.NormalizedRequest) (*jsonapibridge.NormalizedResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

// Calls returns how many requests were executed.
func (m *Transport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil if none was made.
func (m *Transport) LastRequest() *jsonapibridge.NormalizedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}
