package server

import (
	"net/http"

	"github.com/jrsteele09/go-swipe-client/connections"
	"github.com/jrsteele09/go-swipe-client/users"
	"github.com/rs/zerolog/log"
)

type pageData struct {
	AppName    string
	Title      string
	Tab        string
	Notice     string
	Error      string
	Profile    users.Profile
	PhotoIndex int
	View       connections.View
	Match      *users.Profile
}

func (s *Server) newPage(title, tab string) pageData {
	return pageData{AppName: s.config.GetAppName(), Title: title, Tab: tab}
}

// IndexHandler sends the browser to its profile.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteProfile, http.StatusSeeOther)
	}
}

// ProfilePageHandler renders the user's own profile.
func (s *Server) ProfilePageHandler() http.HandlerFunc {
	return s.profilePage("Мой профиль", "profile.html")
}

// EditProfilePageHandler renders the profile form.
func (s *Server) EditProfilePageHandler() http.HandlerFunc {
	return s.profilePage("Редактирование профиля", "edit_profile.html")
}

func (s *Server) profilePage(title, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		loaded, err := s.loadOwnProfile(r, v)
		if err != nil {
			s.failPage(w, r, v, err)
			return
		}

		data := s.newPage(title, "profile")
		data.Profile = loaded.Profile
		data.Notice = loaded.Notice
		data.PhotoIndex = v.photos.Index()
		s.render(w, http.StatusOK, name, data)
	}
}

// EditProfileSubmitHandler saves the profile form and shows the result.
func (s *Server) EditProfileSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		userID, err := v.userID(r.Context())
		if err != nil {
			s.failPage(w, r, v, err)
			return
		}
		current, err := v.profiles.Load(r.Context(), userID)
		if err != nil {
			s.failPage(w, r, v, err)
			return
		}

		p := current.Profile
		p.Name = r.PostFormValue("name")
		p.Surname = r.PostFormValue("surname")
		p.Gender = users.ParseGender(r.PostFormValue("gender"))
		p.BirthDate = r.PostFormValue("birth_date")
		p.Personality = r.PostFormValue("personality")
		p.About = r.PostFormValue("about")

		saved, err := v.profiles.SaveLocal(r.Context(), userID, p)
		if err != nil {
			log.Err(err).Str("user_id", userID).Msg("saving profile failed")
			data := s.newPage("Редактирование профиля", "profile")
			data.Profile = p
			data.Error = prefixSaveFailed + err.Error()
			s.render(w, http.StatusInternalServerError, "edit_profile.html", data)
			return
		}
		v.photos.Reset(len(saved.Photos))
		http.Redirect(w, r, RouteProfile, http.StatusSeeOther)
	}
}

// SwipesPageHandler renders matches and incoming likes.
func (s *Server) SwipesPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		data := s.newPage("Симпатии", "likes")

		if err := v.board.Load(r.Context()); err != nil {
			if sessionGone(err) {
				s.endSession(w, r, v)
				return
			}
			log.Err(err).Msg("loading connections failed")
			data.Error = failureMessage(prefixLoadFailed, err)
		}

		data.View = v.board.View()
		data.Notice = data.View.Notice
		if match, ok := v.board.CurrentMatch(); ok {
			data.Match = &match
		}
		s.render(w, http.StatusOK, "swipes.html", data)
	}
}

// failPage is failSession for pages.
func (s *Server) failPage(w http.ResponseWriter, r *http.Request, v *viewer, err error) {
	if sessionGone(err) {
		s.endSession(w, r, v)
		return
	}
	log.Err(err).Msg("reading session failed")
	http.Error(w, prefixLoadFailed+msgConnectionProblem, http.StatusServiceUnavailable)
}
