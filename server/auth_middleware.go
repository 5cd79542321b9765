package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// sessionCookieName holds the id of the browser's server side session.
const sessionCookieName = "swipe_session"

type viewerKey struct{}

func viewerFrom(ctx context.Context) *viewer {
	v, _ := ctx.Value(viewerKey{}).(*viewer)
	return v
}

// RequireSession mounts the browser's session before the handler runs and
// sends the browser to log in when it has none.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				s.redirectToLogin(w, r)
				return
			}

			v, err := s.mount(r.Context(), cookie.Value)
			if err != nil {
				log.Debug().Err(err).Msg("no session for browser")
				s.SetSessionCookie(w, r, "", -1)
				s.redirectToLogin(w, r)
				return
			}

			next(w, r.WithContext(context.WithValue(r.Context(), viewerKey{}, v)))
		}
	}
}

// sessionGone reports whether err means the user has to log in again.
func sessionGone(err error) bool {
	return errors.Is(err, errors.ErrSessionExpired) || errors.Is(err, errors.ErrSessionNotFound)
}

// endSession forgets the browser's session after it was found gone and
// sends the browser to log in.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request, v *viewer) {
	if v != nil {
		v.manager.Stop()
		s.viewers.remove(v)
	}
	s.SetSessionCookie(w, r, "", -1)
	s.redirectToLogin(w, r)
}

// redirectToLogin remembers the page being opened so the login can return
// to it. API calls are not remembered.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := RouteLogin
	if r.Method == http.MethodGet && !strings.HasPrefix(r.URL.Path, "/api/") {
		target += "?return=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// SetSessionCookie sets the browser session cookie. A maxAge of 0 makes it a
// session cookie and a negative one deletes it.
func (s *Server) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// localPath accepts only same-site absolute paths, so a login cannot be
// used to redirect elsewhere.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
