package token

import "time"

// Response is the token bundle returned by the API's /auth/callback and
// /auth/refresh endpoints.
type Response struct {
	// AccessToken is the bearer token sent on every API call.
	// Usage: Authorization: Bearer <access_token>
	AccessToken string `json:"access_token"`

	// RefreshToken is exchanged at /auth/refresh for a new bundle.
	// Some servers omit it on refresh and keep the previous one valid.
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// The client schedules its proactive refresh from this value.
	ExpiresIn int `json:"expires_in"`

	// RefreshExpiresIn is the lifetime in seconds of the refresh token.
	RefreshExpiresIn int `json:"refresh_expires_in"`

	TokenType string `json:"token_type,omitempty"`
}

// AccessTTL returns the access token lifetime as a duration.
func (r Response) AccessTTL() time.Duration {
	return time.Duration(r.ExpiresIn) * time.Second
}
