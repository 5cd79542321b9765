// Package connections loads the user's matches and the people who liked them,
// and applies like/dislike decisions to those lists.
package connections

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/internal/metrics"
	"github.com/jrsteele09/go-swipe-client/profiles"
	"github.com/jrsteele09/go-swipe-client/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Kind string

const (
	KindMatches Kind = "matches"
	KindSwipes  Kind = "swipes"
)

const defaultConcurrency = 8

// ListAPI returns pages of bare user ids.
type ListAPI interface {
	ListMatches(ctx context.Context, page, limit int) ([]string, error)
	ListSwipes(ctx context.Context, page, limit int) ([]string, error)
}

// ProfileFetcher resolves one id into a profile. *profiles.Aggregator implements it.
type ProfileFetcher interface {
	Fetch(ctx context.Context, userID string) (*users.Profile, error)
}

var _ ProfileFetcher = (*profiles.Aggregator)(nil)

type Aggregator struct {
	lists       ListAPI
	profiles    ProfileFetcher
	concurrency int
}

// NewAggregator resolves at most concurrency ids at a time (8 when <= 0).
func NewAggregator(lists ListAPI, fetcher ProfileFetcher, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Aggregator{lists: lists, profiles: fetcher, concurrency: concurrency}
}

// FetchList returns the profiles of one page of kind, in the order the API
// listed them. Ids whose user record cannot be fetched are left out.
func (a *Aggregator) FetchList(ctx context.Context, kind Kind, page, limit int) ([]users.Profile, error) {
	var (
		ids []string
		err error
	)
	switch kind {
	case KindMatches:
		ids, err = a.lists.ListMatches(ctx, page, limit)
	case KindSwipes:
		ids, err = a.lists.ListSwipes(ctx, page, limit)
	default:
		return nil, fmt.Errorf("[Aggregator FetchList] unknown kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("[Aggregator FetchList] list %s: %w", kind, err)
	}

	resolved := make([]*users.Profile, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := a.profiles.Fetch(gctx, id)
			if err != nil {
				// Without a session every other fetch fails too.
				if errors.Is(err, errors.ErrSessionExpired) || errors.Is(err, errors.ErrSessionNotFound) {
					return err
				}
				log.Warn().Err(err).Str("kind", string(kind)).Str("user_id", id).Msg("dropping connection")
				metrics.DroppedConnections.WithLabelValues(string(kind)).Inc()
				return nil
			}
			resolved[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]users.Profile, 0, len(ids))
	for _, p := range resolved {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}
