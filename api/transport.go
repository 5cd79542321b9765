package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-swipe-client/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID stores the id of the inbound request so calls it causes carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type TransportOptions struct {
	// RateLimit is the sustained number of calls per second; 0 disables limiting.
	RateLimit float64
	Burst     int
}

// NewTransport builds the shared outbound chain:
// tracing, request id, rate limiting, latency metrics, then base.
func NewTransport(base http.RoundTripper, opts TransportOptions) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := metrics.InstrumentTransport(base)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		rt = &limitedTransport{next: rt, limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), burst)}
	}
	rt = &requestIDTransport{next: rt}
	return otelhttp.NewTransport(rt)
}

type requestIDTransport struct {
	next http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.next.RoundTrip(req)
	}
	id := RequestID(req.Context())
	if id == "" {
		id = uuid.NewString()
	}
	r := req.Clone(req.Context())
	r.Header.Set(RequestIDHeader, id)
	return t.next.RoundTrip(r)
}

// limitedTransport bounds the call rate of the whole process against the API.
type limitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	return t.next.RoundTrip(req)
}
