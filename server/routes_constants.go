package server

// Route path constants
const (
	// Login flow. These are the only pages served without a session.
	RouteLogin        = "/login"
	RouteCodeCallback = "/code_callback"
	RouteAuthLogout   = "/auth/logout"

	// Pages
	RouteRoot        = "/{$}"
	RouteProfile     = "/profile"
	RouteEditProfile = "/edit-profile"
	RouteSwipes      = "/swipes"

	// JSON API used by the pages
	RouteAPIProfile       = "/api/profile"
	RouteAPIProfilePhotos = "/api/profile/photos/{direction}"
	RouteAPIConnections   = "/api/connections"
	RouteAPIMatches       = "/api/matches/{direction}"
	RouteAPIMatchPhotos   = "/api/matches/photos/{direction}"
	RouteAPISwipes        = "/api/swipes"

	// Operations
	RouteMetrics = "/metrics"
	RouteHealthz = "/healthz"
)
