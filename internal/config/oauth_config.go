package config

import "time"

type OAuthConfig interface {
	GetAuthURL() string
	GetOIDCIssuer() string
	GetClientID() string
	GetScopes() []string
	GetRedirectURL() string
	GetAuthCodeTimeout() time.Duration
}

type OAuth struct {
	v values
}

var _ OAuthConfig = OAuth{}

// GetAuthURL is the authorize endpoint users are sent to on /login. When empty
// the endpoint is discovered from GetOIDCIssuer.
func (o OAuth) GetAuthURL() string {
	return o.v.get("AUTH_URL", "")
}

func (o OAuth) GetOIDCIssuer() string {
	return o.v.get("OIDC_ISSUER", "")
}

func (o OAuth) GetClientID() string {
	return o.v.get("OAUTH_CLIENT_ID", "swipe-client")
}

func (o OAuth) GetScopes() []string {
	return o.v.getList("OAUTH_SCOPES", []string{"openid", "profile"})
}

// GetRedirectURL is where the authorization server sends the code back to.
func (o OAuth) GetRedirectURL() string {
	return EnvVars(o).GetBaseURL() + "/code_callback"
}

// GetAuthCodeTimeout bounds how long a login state is accepted.
func (OAuth) GetAuthCodeTimeout() time.Duration {
	return 15 * time.Minute
}
