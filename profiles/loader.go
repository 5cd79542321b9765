package profiles

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/users"
	"github.com/rs/zerolog/log"
)

// NoticeFallback is shown when the API could not provide the profile.
const NoticeFallback = "Не удалось загрузить данные с сервера. Используются сохранённые или дефолтные данные."

type Source string

const (
	SourceServer  Source = "server"
	SourceCache   Source = "cache"
	SourceDefault Source = "default"
)

// Loaded is a profile together with where it came from.
type Loaded struct {
	Profile users.Profile `json:"profile"`
	Source  Source        `json:"source"`
	Notice  string        `json:"notice,omitempty"`
}

// Loader serves a user's own profile, falling back to the locally saved copy
// and then to the default profile.
type Loader struct {
	aggregator *Aggregator
	cache      Cache
}

func NewLoader(aggregator *Aggregator, cache Cache) *Loader {
	return &Loader{aggregator: aggregator, cache: cache}
}

// Load never fails because the API is down. It does fail when the session
// is gone, so the caller can send the user to log in again.
func (l *Loader) Load(ctx context.Context, userID string) (Loaded, error) {
	p, err := l.aggregator.Fetch(ctx, userID)
	if err == nil {
		return Loaded{Profile: *p, Source: SourceServer}, nil
	}
	if errors.Is(err, errors.ErrSessionExpired) || errors.Is(err, errors.ErrSessionNotFound) {
		return Loaded{}, err
	}
	log.Err(err).Str("user_id", userID).Msg("profile unavailable, using fallback")

	if cached, ok, cacheErr := l.cache.Get(ctx, userID); cacheErr != nil {
		log.Err(cacheErr).Str("user_id", userID).Msg("reading cached profile failed")
	} else if ok {
		return Loaded{Profile: cached, Source: SourceCache, Notice: NoticeFallback}, nil
	}
	return Loaded{Profile: users.DefaultProfile(), Source: SourceDefault, Notice: NoticeFallback}, nil
}

// SaveLocal keeps an edited profile so it can be shown when the API is not
// reachable. The age is derived again from the edited birth date.
func (l *Loader) SaveLocal(ctx context.Context, userID string, p users.Profile) (users.Profile, error) {
	p.ID = userID
	p.Age = users.Age(p.BirthDate, l.aggregator.nowTime())
	if p.Personality == "" {
		p.Personality = users.DefaultPersonality
	}
	p.Gender = users.ParseGender(string(p.Gender))
	if p.Photos == nil {
		p.Photos = []users.Photo{}
	}
	if p.Tags == nil {
		p.Tags = []users.Tag{}
	}
	if err := l.cache.Put(ctx, userID, p); err != nil {
		return users.Profile{}, fmt.Errorf("[Loader SaveLocal] %w", err)
	}
	return p, nil
}
