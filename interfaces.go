package jsonapibridge

import "context"

// Transport defines the HTTP collaborator the Bridge hands every built request to.
// Implementations own connection handling, auth and timeouts; a non-2xx response
// should be reported as a *StatusError.
type Transport interface {
	ExecuteRequest(ctx context.Context, req *NormalizedRequest) (*NormalizedResponse, error)
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, req *NormalizedRequest) (*NormalizedResponse, error)

func (f TransportFunc) ExecuteRequest(ctx context.Context, req *NormalizedRequest) (*NormalizedResponse, error) {
	return f(ctx, req)
}
