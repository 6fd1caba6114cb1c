// Package metrics instruments a jsonapibridge.Transport with Prometheus collectors.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	jsonapibridge "github.com/opengovern/jsonapi-bridge"
)

const namespace = "jsonapi_bridge"

// Transport counts requests by method and status and observes their latency before
// handing them to the wrapped Transport. Status is the response code, or "error"
// when the request failed without one.
type Transport struct {
	next     jsonapibridge.Transport
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewTransport wraps next and registers its collectors with reg.
func NewTransport(next jsonapibridge.Transport, reg prometheus.Registerer) (*Transport, error) {
	t := &Transport{
		next: next,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests sent to the JSONAPI backend.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the JSONAPI backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	for _, c := range []prometheus.Collector{t.requests, t.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register collector")
		}
	}
	return t, nil
}

func (t *Transport) ExecuteRequest(ctx context.Context, req *jsonapibridge.NormalizedRequest) (*jsonapibridge.NormalizedResponse, error) {
	start := time.Now()
	resp, err := t.next.ExecuteRequest(ctx, req)
	t.duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	t.requests.WithLabelValues(req.Method, status(resp, err)).Inc()
	return resp, err
}

func status(resp *jsonapibridge.NormalizedResponse, err error) string {
	var statusErr *jsonapibridge.StatusError
	switch {
	case errors.As(err, &statusErr):
		return strconv.Itoa(statusErr.StatusCode)
	case err != nil, resp == nil:
		return "error"
	}
	return strconv.Itoa(resp.StatusCode)
}
