package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-swipe-client/api"
	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/profiles"
	"github.com/jrsteele09/go-swipe-client/users"
	"github.com/rs/zerolog/log"
)

const (
	prefixLoadFailed     = "Не удалось загрузить данные: "
	prefixSwipeFailed    = "Не удалось выполнить свайп: "
	prefixSaveFailed     = "Не удалось сохранить профиль: "
	msgConnectionProblem = "проблема с подключением к серверу"

	maxRequestBody = 1 << 20
)

type profileResponse struct {
	profiles.Loaded
	PhotoIndex int `json:"photo_index"`
}

type indexResponse struct {
	Index int `json:"index"`
}

type decisionRequest struct {
	TargetID string `json:"targetId"`
	Like     *bool  `json:"like"`
}

// ProfileHandler returns the user's own profile, from the API when possible
// and otherwise from the saved copy or the defaults, with a notice.
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		loaded, err := s.loadOwnProfile(r, v)
		if err != nil {
			s.failSession(w, r, v, err)
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{Loaded: loaded, PhotoIndex: v.photos.Index()})
	}
}

// loadOwnProfile fails only when the session cannot be read.
func (s *Server) loadOwnProfile(r *http.Request, v *viewer) (profiles.Loaded, error) {
	ctx := r.Context()
	userID, err := v.userID(ctx)
	if err != nil {
		return profiles.Loaded{}, err
	}
	loaded, err := v.profiles.Load(ctx, userID)
	if err != nil {
		return profiles.Loaded{}, err
	}
	v.photos.Reset(len(loaded.Profile.Photos))
	return loaded, nil
}

// SaveProfileHandler keeps an edited profile locally.
func (s *Server) SaveProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		var p users.Profile
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid profile: "+err.Error())
			return
		}

		userID, err := v.userID(r.Context())
		if err != nil {
			s.failSession(w, r, v, err)
			return
		}
		saved, err := v.profiles.SaveLocal(r.Context(), userID, p)
		if err != nil {
			log.Err(err).Str("user_id", userID).Msg("saving profile failed")
			writeError(w, http.StatusInternalServerError, prefixSaveFailed+err.Error())
			return
		}
		v.photos.Reset(len(saved.Photos))
		writeJSON(w, http.StatusOK, saved)
	}
}

// ProfilePhotoHandler moves through the user's own photos.
func (s *Server) ProfilePhotoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		i, ok := v.photos.Move(r.PathValue("direction"))
		if !ok {
			writeError(w, http.StatusBadRequest, "direction must be next or prev")
			return
		}
		writeJSON(w, http.StatusOK, indexResponse{Index: i})
	}
}

// ConnectionsHandler loads matches and incoming likes.
func (s *Server) ConnectionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		if err := v.board.Load(r.Context()); err != nil {
			if sessionGone(err) {
				s.endSession(w, r, v)
				return
			}
			log.Err(err).Msg("loading connections failed")
			writeError(w, http.StatusBadGateway, failureMessage(prefixLoadFailed, err))
			return
		}
		writeJSON(w, http.StatusOK, v.board.View())
	}
}

// MatchHandler moves through the matches.
func (s *Server) MatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		if _, ok := v.board.MoveMatch(r.PathValue("direction")); !ok {
			writeError(w, http.StatusBadRequest, "direction must be next or prev")
			return
		}
		writeJSON(w, http.StatusOK, v.board.View())
	}
}

// MatchPhotoHandler moves through the photos of the current match.
func (s *Server) MatchPhotoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		i, ok := v.board.MovePhoto(r.PathValue("direction"))
		if !ok {
			writeError(w, http.StatusBadRequest, "direction must be next or prev")
			return
		}
		writeJSON(w, http.StatusOK, indexResponse{Index: i})
	}
}

// SwipeHandler likes or dislikes someone who liked the user.
func (s *Server) SwipeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := viewerFrom(r.Context())
		var req decisionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid decision: "+err.Error())
			return
		}
		if req.TargetID == "" || req.Like == nil {
			writeError(w, http.StatusBadRequest, "targetId and like are required")
			return
		}

		if err := v.board.Decide(r.Context(), req.TargetID, *req.Like); err != nil {
			if sessionGone(err) {
				s.endSession(w, r, v)
				return
			}
			log.Err(err).Str("target_id", req.TargetID).Msg("decision failed")
			writeError(w, http.StatusBadGateway, failureMessage(prefixSwipeFailed, err))
			return
		}
		writeJSON(w, http.StatusOK, v.board.View())
	}
}

// HealthzHandler reports that the process serves requests.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// failSession handles an error reading the session: a session that is gone
// means logging in again, anything else is the store failing.
func (s *Server) failSession(w http.ResponseWriter, r *http.Request, v *viewer, err error) {
	if sessionGone(err) {
		s.endSession(w, r, v)
		return
	}
	log.Err(err).Msg("reading session failed")
	writeError(w, http.StatusServiceUnavailable, prefixLoadFailed+msgConnectionProblem)
}

// failureMessage is what the user is told about a failed API call: the
// server's own message, the status, or that the server was not reachable.
func failureMessage(prefix string, err error) string {
	var se *api.StatusError
	if !errors.As(err, &se) {
		return prefix + msgConnectionProblem
	}
	return prefix + api.UserMessage(err, se.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("writing response failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
