// resty_adapter.go
// ----------------
// RestyAdapter is the HTTP collaborator used in production. It sends the
// NormalizedRequest built by the Bridge through a resty client and reports any
// response outside the 2xx range as a *jsonapibridge.StatusError carrying the raw
// body. It never retries; retry and timeout policy belong to the resty client the
// caller configures.
package adapters

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	jsonapibridge "github.com/opengovern/jsonapi-bridge"
)

type RestyAdapter struct {
	Client *resty.Client

	// RequestIDHeader, when set, names a header stamped with a random UUID on
	// requests that do not carry it already.
	RequestIDHeader string
}

// NewRestyAdapter wraps client, or a default resty client when nil.
func NewRestyAdapter(client *resty.Client) *RestyAdapter {
	if client == nil {
		client = resty.New()
	}
	return &RestyAdapter{Client: client}
}

// NewOAuth2Adapter returns an adapter whose requests are authorized with tokens
// from ts.
func NewOAuth2Adapter(ctx context.Context, ts oauth2.TokenSource) *RestyAdapter {
	return NewRestyAdapter(resty.NewWithClient(oauth2.NewClient(ctx, ts)))
}

func (r *RestyAdapter) ExecuteRequest(ctx context.Context, req *jsonapibridge.NormalizedRequest) (*jsonapibridge.NormalizedResponse, error) {
	httpReq := r.Client.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if r.RequestIDHeader != "" && httpReq.Header.Get(r.RequestIDHeader) == "" {
		httpReq.SetHeader(r.RequestIDHeader, uuid.NewString())
	}
	if len(req.Body) > 0 {
		httpReq.SetBody(req.Body)
	}

	method := req.Method
	if method == "" {
		method = resty.MethodGet
	}
	resp, err := httpReq.Execute(method, req.Endpoint)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	for k, vals := range resp.Header() {
		if len(vals) > 0 {
			headers[strings.ToLower(k)] = vals[0]
		}
	}

	out := &jsonapibridge.NormalizedResponse{
		StatusCode: resp.StatusCode(),
		Headers:    headers,
		Data:       resp.Body(),
	}
	if !out.Success() {
		return nil, &jsonapibridge.StatusError{
			Method:     method,
			Endpoint:   req.Endpoint,
			StatusCode: out.StatusCode,
			Body:       out.Data,
		}
	}
	return out, nil
}
