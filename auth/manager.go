// Package auth owns the token lifecycle of a browsing context: it renews the
// access token before it expires, renews it again when the API rejects it,
// and gives up by clearing the session when renewal is impossible.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/internal/metrics"
	"github.com/jrsteele09/go-swipe-client/sessions"
	"github.com/jrsteele09/go-swipe-client/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// RefreshThreshold is the fraction of the access token lifetime after which
// it is renewed.
const RefreshThreshold = 0.75

// refreshTimeout bounds a refresh that no caller is waiting on.
const refreshTimeout = 30 * time.Second

type State int

const (
	StateUnauthenticated State = iota
	StateActive
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "AUTHENTICATED_ACTIVE"
	case StateRefreshing:
		return "REFRESHING"
	default:
		return "UNAUTHENTICATED"
	}
}

// TokenAPI is the part of the remote API the manager talks to.
type TokenAPI interface {
	Refresh(ctx context.Context, refreshToken string) (token.Response, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manager is the session lifecycle of one browsing context.
type Manager struct {
	repo              sessions.Repo
	api               TokenAPI
	afterFunc         AfterFunc
	onUnauthenticated func()

	flight singleflight.Group

	mu         sync.Mutex
	state      State
	mounted    bool
	timer      Timer
	generation uint64 // bumped whenever the armed timer is replaced
	epoch      uint64 // bumped whenever the session is destroyed
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithAfterFunc replaces time.AfterFunc (primarily for testing).
func WithAfterFunc(f AfterFunc) ManagerOption {
	return func(m *Manager) {
		m.afterFunc = f
	}
}

// WithOnUnauthenticated registers a hook run whenever the session is lost,
// the equivalent of sending the user back to the login page.
func WithOnUnauthenticated(f func()) ManagerOption {
	return func(m *Manager) {
		m.onUnauthenticated = f
	}
}

func NewManager(repo sessions.Repo, api TokenAPI, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, fmt.Errorf("[NewManager] session repo is required")
	}
	if api == nil {
		return nil, fmt.Errorf("[NewManager] token api is required")
	}

	m := &Manager{
		repo:      repo,
		api:       api,
		afterFunc: stdAfterFunc,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Start mounts the manager. Without a complete session it ends up
// unauthenticated and returns errors.ErrSessionNotFound; otherwise the
// proactive refresh is armed. Starting again replaces the armed timer.
func (m *Manager) Start(ctx context.Context) error {
	s, err := m.repo.Load(ctx)
	if err != nil {
		m.unauthenticate(ctx)
		return errors.Wrapf(errors.ErrSessionNotFound, "[Manager Start] %v", err)
	}

	m.mu.Lock()
	m.mounted = true
	m.state = StateActive
	m.armLocked(s.ExpiresIn)
	m.mu.Unlock()
	return nil
}

// Stop unmounts the manager and disarms the timer. The stored session is kept.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mounted = false
	m.disarmLocked()
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the stored session.
func (m *Manager) Session(ctx context.Context) (sessions.Session, error) {
	return m.repo.Load(ctx)
}

// AccessToken returns the current access token.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	s, err := m.repo.Load(ctx)
	if err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

// Refresh renews the access token now and returns the new one. Concurrent
// calls, including a proactive refresh that is due, share one request.
// On failure the session is gone and the error wraps errors.ErrSessionExpired.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	return m.refresh(ctx, metrics.TriggerReactive)
}

func (m *Manager) refresh(ctx context.Context, trigger string) (string, error) {
	ch := m.flight.DoChan("refresh", func() (any, error) {
		// The shared call must survive the cancellation of whichever caller started it.
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return m.doRefresh(flightCtx, trigger)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) doRefresh(ctx context.Context, trigger string) (string, error) {
	m.mu.Lock()
	m.state = StateRefreshing
	epoch := m.epoch
	m.mu.Unlock()

	s, err := m.repo.Load(ctx)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues(trigger, metrics.OutcomeFailure).Inc()
		m.unauthenticate(ctx)
		return "", errors.Wrapf(errors.ErrSessionExpired, "[Manager Refresh] no session: %v", err)
	}

	resp, err := m.api.Refresh(ctx, s.RefreshToken)
	if err == nil && (resp.AccessToken == "" || resp.ExpiresIn <= 0) {
		err = fmt.Errorf("refresh response is missing access_token or expires_in")
	}
	if err != nil {
		log.Err(err).Str("trigger", trigger).Str("user_id", s.UserID).Msg("token refresh failed")
		metrics.TokenRefreshes.WithLabelValues(trigger, metrics.OutcomeFailure).Inc()
		m.unauthenticate(ctx)
		return "", errors.Wrapf(errors.ErrSessionExpired, "[Manager Refresh] %v", err)
	}

	next := s.Renewed(resp)

	// Saving under m.mu orders the write against Logout: a session destroyed
	// while the call was in flight stays destroyed.
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		metrics.TokenRefreshes.WithLabelValues(trigger, metrics.OutcomeFailure).Inc()
		log.Debug().Str("user_id", s.UserID).Msg("refreshed tokens dropped, session ended meanwhile")
		return "", errors.Wrapf(errors.ErrSessionExpired, "[Manager Refresh] session ended during refresh")
	}
	if err := m.repo.Save(ctx, next); err != nil {
		m.mu.Unlock()
		log.Err(err).Str("user_id", s.UserID).Msg("saving refreshed session failed")
		metrics.TokenRefreshes.WithLabelValues(trigger, metrics.OutcomeFailure).Inc()
		m.unauthenticate(ctx)
		return "", errors.Wrapf(errors.ErrSessionExpired, "[Manager Refresh] save: %v", err)
	}
	m.state = StateActive
	if m.mounted {
		m.armLocked(next.ExpiresIn)
	}
	m.mu.Unlock()

	metrics.TokenRefreshes.WithLabelValues(trigger, metrics.OutcomeSuccess).Inc()
	log.Debug().Str("trigger", trigger).Int("expires_in", next.ExpiresIn).Msg("access token refreshed")
	return next.AccessToken, nil
}

// Logout ends the session upstream (best effort) and locally. It unmounts
// the manager; a refresh still in flight is discarded.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.epoch++
	m.mounted = false
	m.state = StateUnauthenticated
	m.disarmLocked()
	m.mu.Unlock()

	s, err := m.repo.Load(ctx)
	if err == nil {
		if err := m.api.Logout(ctx, s.RefreshToken); err != nil {
			log.Err(err).Str("user_id", s.UserID).Msg("upstream logout failed")
		}
	}

	if err := m.repo.Clear(ctx); err != nil {
		return fmt.Errorf("[Manager Logout] clear session: %w", err)
	}
	return nil
}

func (m *Manager) unauthenticate(ctx context.Context) {
	if err := m.repo.Clear(ctx); err != nil {
		log.Err(err).Msg("clearing session failed")
	}

	m.mu.Lock()
	m.epoch++
	m.state = StateUnauthenticated
	m.disarmLocked()
	m.mu.Unlock()

	if m.onUnauthenticated != nil {
		m.onUnauthenticated()
	}
}

// armLocked replaces the armed timer with one firing at RefreshThreshold of
// expiresIn seconds. Callers hold m.mu.
func (m *Manager) armLocked(expiresIn int) {
	m.disarmLocked()
	gen := m.generation

	delay := time.Duration(float64(expiresIn) * RefreshThreshold * float64(time.Second))
	m.timer = m.afterFunc(delay, func() {
		m.mu.Lock()
		current := m.generation == gen
		m.mu.Unlock()
		if !current {
			return
		}
		_, _ = m.refresh(context.Background(), metrics.TriggerProactive)
	})
}

func (m *Manager) disarmLocked() {
	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
