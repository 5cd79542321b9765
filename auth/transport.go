package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Tokens supplies bearer tokens to a Transport. *Manager implements it.
type Tokens interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

var _ Tokens = (*Manager)(nil)

// Transport attaches the bearer token to every request. When the API answers
// 401 it renews the token once and replays the request with the new one; the
// replayed response is returned whatever its status.
type Transport struct {
	Base   http.RoundTripper
	Tokens Tokens
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, tokens Tokens) *Transport {
	return &Transport{Base: base, Tokens: tokens}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	accessToken, err := t.Tokens.AccessToken(ctx)
	if err != nil {
		closeBody(req)
		return nil, err
	}

	resp, err := t.base().RoundTrip(withBearer(req, accessToken))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// A consumed body without GetBody cannot be sent again.
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	fresh, err := t.Tokens.Refresh(ctx)
	if err != nil {
		metrics.Replays.WithLabelValues("refresh_failed").Inc()
		if errors.Is(err, errors.ErrSessionExpired) {
			return nil, err
		}
		return nil, errors.Wrapf(errors.ErrSessionExpired, "[Transport RoundTrip] %v", err)
	}

	replay := withBearer(req, fresh)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("[Transport RoundTrip] rewind body: %w", err)
		}
		replay.Body = body
	}

	log.Debug().Str("method", req.Method).Str("url", req.URL.Path).Msg("replaying request with refreshed token")
	resp, err = t.base().RoundTrip(replay)
	if err != nil {
		metrics.Replays.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, err
	}
	metrics.Replays.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

// withBearer clones req so the caller's request is never modified.
func withBearer(req *http.Request, accessToken string) *http.Request {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+accessToken)
	return r
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		req.Body.Close()
	}
}
