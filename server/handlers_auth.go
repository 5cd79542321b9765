package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/sessions"
	"github.com/jrsteele09/go-swipe-client/token/jwt"
	"github.com/jrsteele09/go-swipe-client/users"
	"github.com/rs/zerolog/log"
)

const msgTokensUnavailable = "could not obtain tokens"

// LoginHandler starts a login and sends the browser to the authorize page.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returnURL := r.URL.Query().Get("return")
		if !localPath(returnURL) {
			returnURL = ""
		}

		authorizeURL, err := s.login.LoginURL(returnURL)
		if err != nil {
			log.Err(err).Msg("starting login failed")
			http.Error(w, "could not start login", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, authorizeURL, http.StatusFound)
	}
}

// CodeCallbackHandler finishes a login: it trades the code for tokens, keeps
// them as a new browser session and makes sure the user has a profile.
func (s *Server) CodeCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.FormValue("error"); errParam != "" {
			http.Error(w, "authorization failed: "+errParam+" "+r.FormValue("error_description"), http.StatusBadRequest)
			return
		}

		code := r.FormValue("code")
		if code == "" {
			log.Warn().Err(errors.ErrMissingCode).Msg("callback without code")
			http.Error(w, "authorization code is missing", http.StatusBadRequest)
			return
		}

		returnURL, err := s.login.Verify(r.FormValue("state"))
		if err != nil {
			log.Warn().Err(err).Msg("callback with bad state")
			http.Error(w, "invalid state parameter", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		resp, err := s.api.ExchangeCode(ctx, code)
		if err != nil {
			log.Err(err).Msg("code exchange failed")
			http.Error(w, msgTokensUnavailable, http.StatusBadGateway)
			return
		}
		userID, ok := jwt.Subject(resp.AccessToken)
		if !ok {
			log.Error().Msg("access token carries no user id")
			http.Error(w, msgTokensUnavailable, http.StatusBadGateway)
			return
		}

		sessionID := uuid.NewString()
		repo := sessions.Scoped(s.sessions, sessionID)
		if err := repo.Save(ctx, sessions.FromToken(resp, userID)); err != nil {
			log.Err(err).Str("user_id", userID).Msg("storing session failed")
			http.Error(w, msgTokensUnavailable, http.StatusBadGateway)
			return
		}

		v, err := s.mount(ctx, sessionID)
		if err == nil {
			name, surname := s.config.GetPlaceholderName()
			err = v.client.EnsureProfile(ctx, users.NewProfile{ID: userID, Name: name, Surname: surname})
		}
		if err != nil {
			log.Err(err).Str("user_id", userID).Msg("profile could neither be created nor found")
			if v != nil {
				v.manager.Stop()
				s.viewers.remove(v)
			}
			if err := repo.Clear(ctx); err != nil {
				log.Err(err).Msg("clearing session failed")
			}
			http.Error(w, msgTokensUnavailable, http.StatusBadGateway)
			return
		}

		// Session cookie; the stored tokens expire with the refresh lifetime.
		s.SetSessionCookie(w, r, sessionID, 0)
		log.Info().Str("user_id", userID).Msg("user logged in")

		if returnURL == "" || returnURL == "/" {
			returnURL = s.config.GetPostLoginRedirect()
		}
		http.Redirect(w, r, returnURL, http.StatusSeeOther)
	}
}

// LogoutHandler ends the session upstream and here, then shows the login.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err == nil && cookie.Value != "" {
			s.logout(r, cookie.Value)
		}
		s.SetSessionCookie(w, r, "", -1)
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}

func (s *Server) logout(r *http.Request, sessionID string) {
	ctx := r.Context()
	v, err := s.mount(ctx, sessionID)
	if err != nil {
		// Nothing mounted means nothing valid is stored; drop any remains.
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			log.Err(err).Msg("deleting session failed")
		}
		return
	}

	if err := v.manager.Logout(ctx); err != nil {
		log.Err(err).Msg("logout failed")
	}
	v.manager.Stop()
	s.viewers.remove(v)
}
