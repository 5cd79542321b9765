package sessions

import (
	"context"
	"fmt"

	"github.com/go-playground/validator"
	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/token"
)

// Session is the token pair held for one browsing context.
// A session is either complete or absent; see Valid.
type Session struct {
	AccessToken      string `json:"authToken" validate:"required"`
	RefreshToken     string `json:"refreshToken" validate:"required"`
	ExpiresIn        int    `json:"tokenExpiresIn" validate:"gt=0"`        // seconds
	RefreshExpiresIn int    `json:"refreshTokenExpiresIn" validate:"gt=0"` // seconds
	UserID           string `json:"userId,omitempty"`
}

var validate = validator.New()

// Valid reports whether all four token fields are set.
func (s Session) Valid() bool {
	return validate.Struct(s) == nil
}

// FromToken builds a session from an exchange response.
func FromToken(resp token.Response, userID string) Session {
	return Session{
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		ExpiresIn:        resp.ExpiresIn,
		RefreshExpiresIn: resp.RefreshExpiresIn,
		UserID:           userID,
	}
}

// Renewed applies a refresh response. Servers that do not rotate the refresh
// token omit it; the previous token and its lifetime are kept.
func (s Session) Renewed(resp token.Response) Session {
	next := s
	next.AccessToken = resp.AccessToken
	next.ExpiresIn = resp.ExpiresIn
	if resp.RefreshToken != "" {
		next.RefreshToken = resp.RefreshToken
		if resp.RefreshExpiresIn > 0 {
			next.RefreshExpiresIn = resp.RefreshExpiresIn
		}
	}
	return next
}

// Repo is the session of a single browsing context.
type Repo interface {
	// Load returns errors.ErrSessionNotFound when nothing, or only part of a
	// session, is stored.
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// Store keeps sessions for many browsing contexts, keyed by browser session id.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Upsert(ctx context.Context, id string, s Session) error
	Delete(ctx context.Context, id string) error
}

type scoped struct {
	store Store
	id    string
}

// Scoped binds a Store to one browser session id.
func Scoped(store Store, id string) Repo {
	return &scoped{store: store, id: id}
}

func (r *scoped) Load(ctx context.Context) (Session, error) {
	s, err := r.store.Get(ctx, r.id)
	if err != nil {
		return Session{}, err
	}
	if !s.Valid() {
		// Partial sessions force re-authentication.
		_ = r.store.Delete(ctx, r.id)
		return Session{}, errors.ErrSessionNotFound
	}
	return s, nil
}

func (r *scoped) Save(ctx context.Context, s Session) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("[sessions Save] incomplete session: %w", err)
	}
	return r.store.Upsert(ctx, r.id, s)
}

func (r *scoped) Clear(ctx context.Context) error {
	return r.store.Delete(ctx, r.id)
}
