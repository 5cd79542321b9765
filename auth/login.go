package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-swipe-client/auth/flowstate"
	"github.com/jrsteele09/go-swipe-client/internal/config"
	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const stateLength = 32

// Login builds authorize URLs and checks the state they come back with.
type Login struct {
	oauth   *oauth2.Config
	states  flowstate.Repo
	timeout time.Duration
	nowTime func() time.Time
}

// LoginOption defines a function type to modify the Login instance.
type LoginOption func(*Login)

// WithLoginNowTime sets the now time function (primarily for testing)
func WithLoginNowTime(nowFunc func() time.Time) LoginOption {
	return func(l *Login) {
		l.nowTime = nowFunc
	}
}

// NewLogin resolves the authorize endpoint: AUTH_URL when set, otherwise OIDC
// discovery on OIDC_ISSUER, otherwise fallbackAuthURL (the API's own login).
func NewLogin(ctx context.Context, c config.OAuthConfig, fallbackAuthURL string, states flowstate.Repo, options ...LoginOption) (*Login, error) {
	if states == nil {
		return nil, fmt.Errorf("[NewLogin] flow state repo is required")
	}

	endpoint := oauth2.Endpoint{AuthURL: c.GetAuthURL()}
	switch {
	case endpoint.AuthURL != "":
	case c.GetOIDCIssuer() != "":
		provider, err := oidc.NewProvider(ctx, c.GetOIDCIssuer())
		if err != nil {
			return nil, fmt.Errorf("[NewLogin] discover %s: %w", c.GetOIDCIssuer(), err)
		}
		endpoint = provider.Endpoint()
	case fallbackAuthURL != "":
		endpoint.AuthURL = fallbackAuthURL
	default:
		return nil, errors.ErrLoginDisabled
	}

	l := &Login{
		oauth: &oauth2.Config{
			ClientID:    c.GetClientID(),
			Endpoint:    endpoint,
			RedirectURL: c.GetRedirectURL(),
			Scopes:      c.GetScopes(),
		},
		states:  states,
		timeout: c.GetAuthCodeTimeout(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(l)
	}

	log.Info().Str("authorize_url", endpoint.AuthURL).Str("redirect_url", l.oauth.RedirectURL).Msg("login endpoint configured")
	return l, nil
}

// LoginURL starts a login and returns where to send the browser.
func (l *Login) LoginURL(returnURL string) (string, error) {
	state := generateRandomString(stateLength)
	if err := l.states.Upsert(state, &flowstate.FlowState{
		ReturnURL: returnURL,
		CreatedAt: l.nowTime(),
	}); err != nil {
		return "", fmt.Errorf("[Login LoginURL] store state: %w", err)
	}
	return l.oauth.AuthCodeURL(state), nil
}

// Verify consumes a returned state. It returns the URL the login started
// from. Every login issues a state, so a callback without one is rejected.
func (l *Login) Verify(state string) (string, error) {
	if state == "" {
		return "", errors.Wrapf(errors.ErrInvalidState, "[Login Verify] state missing")
	}
	flow, err := l.states.Get(state)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidState, "[Login Verify] %v", err)
	}
	_ = l.states.Delete(state)

	if l.nowTime().Sub(flow.CreatedAt) > l.timeout {
		return "", errors.Wrapf(errors.ErrInvalidState, "[Login Verify] state expired")
	}
	return flow.ReturnURL, nil
}

// Sweep forgets logins older than the auth code timeout.
func (l *Login) Sweep() int {
	return l.states.DeleteCreatedBefore(l.nowTime().Add(-l.timeout))
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
