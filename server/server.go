package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-swipe-client/api"
	"github.com/jrsteele09/go-swipe-client/auth"
	"github.com/jrsteele09/go-swipe-client/internal/config"
	"github.com/jrsteele09/go-swipe-client/profiles"
	"github.com/jrsteele09/go-swipe-client/sessions"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server is the web client: it runs the login flow, keeps every browser's
// tokens server side and serves pages and JSON built from the dating API.
type Server struct {
	env     string
	mux     *http.ServeMux
	handler http.Handler
	routes  []string
	config  config.Config
	pages   *template.Template

	api      *api.Client
	login    *auth.Login
	sessions sessions.Store
	cache    profiles.Cache

	viewers        *viewers
	managerOptions []auth.ManagerOption
	nowTime        func() time.Time
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

// WithManagerOptions is applied to the session manager of every browser.
func WithManagerOptions(opts ...auth.ManagerOption) ServerOption {
	return func(s *Server) {
		s.managerOptions = append(s.managerOptions, opts...)
	}
}

func New(c config.Config, client *api.Client, login *auth.Login, store sessions.Store, cache profiles.Cache, options ...ServerOption) (*Server, error) {
	if client == nil || login == nil || store == nil || cache == nil {
		return nil, fmt.Errorf("[Server New] api client, login, session store and profile cache are required")
	}
	pages, err := ParseTemplates()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse page templates: %w", err)
	}

	s := &Server{
		env:      c.GetEnv(),
		mux:      http.NewServeMux(),
		config:   c,
		pages:    pages,
		api:      client,
		login:    login,
		sessions: store,
		cache:    cache,
		viewers:  newViewers(),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	s.handler = otelhttp.NewHandler(s.RequestLogger(s.mux), "swipe-client",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// RunJanitor unmounts browsers idle for longer than SESSION_IDLE_TIMEOUT and
// forgets abandoned logins, every interval until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one janitor pass.
func (s *Server) Sweep() {
	idle := s.viewers.unmountIdle(s.nowTime().Add(-s.config.GetMaxSessionAge()))
	states := s.login.Sweep()
	if idle > 0 || states > 0 {
		log.Debug().Int("unmounted", idle).Int("expired_logins", states).Msg("janitor pass")
	}
}

// Close unmounts every browser. Stored sessions are kept.
func (s *Server) Close() {
	s.viewers.unmountAll()
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
