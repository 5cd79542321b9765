package config

import (
	"fmt"
	"strings"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	envVar        = "ENV"
	logLevelVar   = "LOG_LEVEL"
	apiURLVar     = "API_URL"
	baseURLVar    = "BASE_URL"
	afterLoginVar = "POST_LOGIN_REDIRECT"
	pageLimitVar  = "PAGE_LIMIT"
	fetchConcVar  = "FETCH_CONCURRENCY"
)

type EnvVars struct {
	v values
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.v.get(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.get(appNameVar, "Swipe Client")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.v.get(envVar, "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.v.get(logLevelVar, "info"))
}

// GetAPIURL returns the root of the remote dating API, without a trailing slash.
func (e EnvVars) GetAPIURL() string {
	return strings.TrimRight(e.v.get(apiURLVar, "http://localhost:8000"), "/")
}

// GetBaseURL returns the public URL of this web client (e.g. "https://app.example.com").
// The OAuth redirect URI is derived from it.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.v.get(baseURLVar, "http://localhost:8080"), "/")
}

func (e EnvVars) GetPostLoginRedirect() string {
	return e.v.get(afterLoginVar, "/edit-profile")
}

func (e EnvVars) GetPageLimit() int {
	limit := e.v.getInt(pageLimitVar, 10)
	if limit <= 0 {
		return 10
	}
	return limit
}

func (e EnvVars) GetFetchConcurrency() int {
	return e.v.getInt(fetchConcVar, 8)
}

// GetPlaceholderName returns the name and surname sent when a profile is
// created on first login.
func (e EnvVars) GetPlaceholderName() (string, string) {
	return e.v.get("PLACEHOLDER_NAME", "Имя"), e.v.get("PLACEHOLDER_SURNAME", "Фамилия")
}
