// Package profiles assembles user profiles from the API's three user
// resources and falls back to locally kept copies when the API is unreachable.
package profiles

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-swipe-client/internal/metrics"
	"github.com/jrsteele09/go-swipe-client/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// UserAPI is the part of the API a profile is built from.
type UserAPI interface {
	GetUser(ctx context.Context, id string) (users.Record, error)
	GetPhotos(ctx context.Context, id string) ([]users.Photo, error)
	GetTags(ctx context.Context, id string) ([]users.RawTag, error)
}

// Aggregator fetches and merges one user's record, photos and tags.
type Aggregator struct {
	api     UserAPI
	nowTime users.Clock
}

// AggregatorOption defines a function type to modify the Aggregator instance.
type AggregatorOption func(*Aggregator)

// WithNowTime sets the clock ages are computed against (primarily for testing)
func WithNowTime(now users.Clock) AggregatorOption {
	return func(a *Aggregator) {
		a.nowTime = now
	}
}

func NewAggregator(api UserAPI, options ...AggregatorOption) *Aggregator {
	a := &Aggregator{api: api, nowTime: time.Now}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Fetch returns the merged profile of userID. Only the core record is
// mandatory: photos or tags that cannot be fetched become empty lists.
func (a *Aggregator) Fetch(ctx context.Context, userID string) (*users.Profile, error) {
	rec, err := a.api.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("[Aggregator Fetch] user %s: %w", userID, err)
	}
	if rec.ID == "" {
		rec.ID = userID
	}

	var (
		photos []users.Photo
		tags   []users.RawTag
	)
	var g errgroup.Group
	g.Go(func() error {
		p, err := a.api.GetPhotos(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("photos unavailable, showing none")
			metrics.Degraded.WithLabelValues("photos").Inc()
			return nil
		}
		photos = p
		return nil
	})
	g.Go(func() error {
		t, err := a.api.GetTags(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("tags unavailable, showing none")
			metrics.Degraded.WithLabelValues("tags").Inc()
			return nil
		}
		tags = t
		return nil
	})
	_ = g.Wait()

	p := users.Merge(rec, photos, tags, a.nowTime)
	return &p, nil
}
