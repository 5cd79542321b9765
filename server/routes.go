package server

import (
	"net/http"

	"github.com/jrsteele09/go-swipe-client/internal/metrics"
)

func (s *Server) initRoutes() {
	session := s.RequireSession()

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteCodeCallback, ChainMiddleware(s.CodeCallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteCodeCallback, ChainMiddleware(s.CodeCallbackHandler(), s.HTMLMiddleWare()...)) // For form_post response mode
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Pages
	s.RegisterRouteHandler("GET "+RouteRoot, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare(session)...))
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfilePageHandler(), s.HTMLMiddleWare(session)...))
	s.RegisterRouteHandler("GET "+RouteEditProfile, ChainMiddleware(s.EditProfilePageHandler(), s.HTMLMiddleWare(session)...))
	s.RegisterRouteHandler("POST "+RouteEditProfile, ChainMiddleware(s.EditProfileSubmitHandler(), s.HTMLMiddleWare(session)...))
	s.RegisterRouteHandler("GET "+RouteSwipes, ChainMiddleware(s.SwipesPageHandler(), s.HTMLMiddleWare(session)...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPIProfile, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware(session)...))
	s.RegisterRouteHandler("PUT "+RouteAPIProfile, ChainMiddleware(s.SaveProfileHandler(), s.APIMiddleware(session)...))
	s.RegisterRouteHandler("POST "+RouteAPIProfilePhotos, ChainMiddleware(s.ProfilePhotoHandler(), s.APIMiddleware(session)...))
	s.RegisterRouteHandler("GET "+RouteAPIConnections, ChainMiddleware(s.ConnectionsHandler(), s.APIMiddleware(session)...))
	s.RegisterRouteHandler("POST "+RouteAPIMatches, ChainMiddleware(s.MatchHandler(), s.APIMiddleware(session)...))
	s.RegisterRouteHandler("POST "+RouteAPIMatchPhotos, ChainMiddleware(s.MatchPhotoHandler(), s.APIMiddleware(session)...))
	s.RegisterRouteHandler("POST "+RouteAPISwipes, ChainMiddleware(s.SwipeHandler(), s.APIMiddleware(session)...))
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(noContent, s.CorsMiddleware)) // CORS preflight

	// Operations
	s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler())
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
