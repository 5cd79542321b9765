// Package redisstore keeps browser sessions in redis so that several client
// instances, and restarts, see the same token pair.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/sessions"
	"github.com/redis/go-redis/v9"
)

// minTTL keeps a key from living forever when the refresh lifetime is unknown.
const minTTL = time.Hour

type Store struct {
	client *redis.Client
	prefix string
	sealer *sessions.Sealer
}

// New returns a Store. sealer may be nil, in which case values are plain JSON.
func New(client *redis.Client, prefix string, sealer *sessions.Sealer) *Store {
	return &Store{client: client, prefix: prefix, sealer: sealer}
}

func (r *Store) key(id string) string {
	return r.prefix + "session:" + id
}

func (r *Store) Get(ctx context.Context, id string) (sessions.Session, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	switch {
	case err == redis.Nil:
		return sessions.Session{}, errors.ErrSessionNotFound
	case err != nil:
		return sessions.Session{}, fmt.Errorf("[redisstore Get] %w", err)
	}

	if r.sealer != nil {
		if raw, err = r.sealer.Open(id, raw); err != nil {
			return sessions.Session{}, err
		}
	}

	var s sessions.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return sessions.Session{}, fmt.Errorf("[redisstore Get] decode: %w", err)
	}
	return s, nil
}

func (r *Store) Upsert(ctx context.Context, id string, s sessions.Session) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if r.sealer != nil {
		if raw, err = r.sealer.Seal(id, raw); err != nil {
			return err
		}
	}
	return r.client.Set(ctx, r.key(id), raw, ttl(s)).Err()
}

func (r *Store) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// ttl matches the refresh token lifetime; after that the session cannot be renewed.
func ttl(s sessions.Session) time.Duration {
	d := time.Duration(s.RefreshExpiresIn) * time.Second
	if d <= 0 {
		return minTTL
	}
	return d
}
