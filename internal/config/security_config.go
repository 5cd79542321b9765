package config

import "time"

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetSessionSealKey() string
	GetEnableRateLimiting() bool
	GetAPIRateLimit() float64
	GetAPIRateBurst() int
}

type Security struct {
	v values
}

var _ SecurityConfig = Security{}

// GetMaxSessionAge is how long a browsing context may stay idle before its
// refresh timer is disarmed. The stored session is kept.
func (s Security) GetMaxSessionAge() time.Duration {
	return s.v.getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute)
}

// GetSessionSealKey is the secret tokens are sealed with at rest. Empty means
// sessions are stored in the clear.
func (s Security) GetSessionSealKey() string {
	return s.v.get("SESSION_SEAL_KEY", "")
}

func (s Security) GetEnableRateLimiting() bool {
	return s.GetAPIRateLimit() > 0
}

// GetAPIRateLimit is the outbound request rate to the API in requests per second.
func (s Security) GetAPIRateLimit() float64 {
	return s.v.getFloat("API_RATE_LIMIT", 0)
}

func (s Security) GetAPIRateBurst() int {
	return s.v.getInt("API_RATE_BURST", 20)
}
