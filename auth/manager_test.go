package auth_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-swipe-client/auth"
	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/sessions"
	"github.com/jrsteele09/go-swipe-client/token"
	"github.com/stretchr/testify/require"
)

// fakeClock runs AfterFunc callbacks when simulated time passes their deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) auth.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// armed returns the deadlines of timers that are still pending.
func (c *fakeClock) armed() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.at)
		}
	}
	return out
}

type fakeTokenAPI struct {
	mu        sync.Mutex
	calls     atomic.Int32
	resp      token.Response
	err       error
	release   chan struct{} // when set, Refresh blocks until closed
	entered   chan struct{}
	seen      []string
	loggedOut []string
}

func (f *fakeTokenAPI) Refresh(_ context.Context, refreshToken string) (token.Response, error) {
	n := f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, refreshToken)
	release, entered := f.release, f.entered
	resp, err := f.resp, f.err
	f.mu.Unlock()

	if entered != nil && n == 1 {
		close(entered)
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return token.Response{}, err
	}
	if resp.AccessToken == "" {
		resp = token.Response{
			AccessToken:      fmt.Sprintf("access-%d", n+1),
			RefreshToken:     fmt.Sprintf("refresh-%d", n+1),
			ExpiresIn:        200,
			RefreshExpiresIn: 3600,
		}
	}
	return resp, nil
}

func (f *fakeTokenAPI) Logout(_ context.Context, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, refreshToken)
	return nil
}

type managerFixture struct {
	repo    sessions.Repo
	api     *fakeTokenAPI
	clock   *fakeClock
	lost    atomic.Int32
	manager *auth.Manager
}

func setupManager(t *testing.T, expiresIn int) *managerFixture {
	t.Helper()

	f := &managerFixture{
		repo:  sessions.Scoped(sessions.NewInMemoryStore(), "browser-1"),
		api:   &fakeTokenAPI{},
		clock: &fakeClock{},
	}
	if expiresIn > 0 {
		require.NoError(t, f.repo.Save(context.Background(), sessions.Session{
			AccessToken:      "access-1",
			RefreshToken:     "refresh-1",
			ExpiresIn:        expiresIn,
			RefreshExpiresIn: 3600,
			UserID:           "u-1",
		}))
	}

	m, err := auth.NewManager(f.repo, f.api,
		auth.WithAfterFunc(f.clock.AfterFunc),
		auth.WithOnUnauthenticated(func() { f.lost.Add(1) }),
	)
	require.NoError(t, err)
	f.manager = m
	return f
}

func TestNewManager_RequiresDependencies(t *testing.T) {
	_, err := auth.NewManager(nil, &fakeTokenAPI{})
	require.Error(t, err)

	_, err = auth.NewManager(sessions.Scoped(sessions.NewInMemoryStore(), "b"), nil)
	require.Error(t, err)
}

func TestManager_StartWithoutSession(t *testing.T) {
	f := setupManager(t, 0)

	err := f.manager.Start(context.Background())
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
	require.Equal(t, auth.StateUnauthenticated, f.manager.State())
	require.Equal(t, int32(1), f.lost.Load())
	require.Empty(t, f.clock.armed())
}

func TestManager_ProactiveRefresh(t *testing.T) {
	f := setupManager(t, 100)
	ctx := context.Background()

	require.NoError(t, f.manager.Start(ctx))
	require.Equal(t, auth.StateActive, f.manager.State())
	require.Equal(t, []time.Duration{75 * time.Second}, f.clock.armed())

	f.clock.Advance(74 * time.Second)
	require.Zero(t, f.api.calls.Load(), "refresh must not fire before 75 percent of the lifetime")

	f.clock.Advance(time.Second)
	require.Equal(t, int32(1), f.api.calls.Load())
	require.Equal(t, []string{"refresh-1"}, f.api.seen)
	require.Equal(t, auth.StateActive, f.manager.State())

	s, err := f.repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-2", s.AccessToken)
	require.Equal(t, "refresh-2", s.RefreshToken)
	require.Equal(t, "u-1", s.UserID)

	t.Run("re-armed at 75% of the new lifetime", func(t *testing.T) {
		require.Equal(t, []time.Duration{75*time.Second + 150*time.Second}, f.clock.armed())

		f.clock.Advance(150 * time.Second)
		require.Equal(t, int32(2), f.api.calls.Load())
		require.Equal(t, "refresh-2", f.api.seen[1])
	})
}

func TestManager_StartTwiceKeepsOneTimer(t *testing.T) {
	f := setupManager(t, 100)
	ctx := context.Background()

	require.NoError(t, f.manager.Start(ctx))
	f.clock.Advance(10 * time.Second)
	require.NoError(t, f.manager.Start(ctx))

	require.Equal(t, []time.Duration{85 * time.Second}, f.clock.armed())
	f.clock.Advance(100 * time.Second)
	require.Equal(t, int32(1), f.api.calls.Load())
}

func TestManager_ReactiveRefreshSupersedesProactive(t *testing.T) {
	f := setupManager(t, 100)
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx))

	f.clock.Advance(30 * time.Second)
	fresh, err := f.manager.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-2", fresh)

	// The 75s deadline of the first token is gone; the next one is 150s after the refresh.
	require.Equal(t, []time.Duration{30*time.Second + 150*time.Second}, f.clock.armed())
	f.clock.Advance(60 * time.Second)
	require.Equal(t, int32(1), f.api.calls.Load())
}

func TestManager_ConcurrentRefreshesAreCoalesced(t *testing.T) {
	f := setupManager(t, 100)
	f.api.release = make(chan struct{})
	f.api.entered = make(chan struct{})
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx))

	const callers = 5
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = f.manager.Refresh(ctx)
	}()
	<-f.api.entered
	require.Equal(t, auth.StateRefreshing, f.manager.State())

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.manager.Refresh(ctx)
		}(i)
	}
	// The proactive deadline passes while the reactive refresh is in flight.
	go f.clock.Advance(75 * time.Second)

	time.Sleep(50 * time.Millisecond)
	close(f.api.release)
	wg.Wait()

	require.Equal(t, int32(1), f.api.calls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		require.Equal(t, "access-2", results[i])
	}
	require.Equal(t, auth.StateActive, f.manager.State())
}

func TestManager_RefreshFailure(t *testing.T) {
	f := setupManager(t, 100)
	f.api.err = fmt.Errorf("invalid refresh token")
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx))

	f.clock.Advance(75 * time.Second)

	require.Equal(t, auth.StateUnauthenticated, f.manager.State())
	require.Equal(t, int32(1), f.lost.Load())
	require.Empty(t, f.clock.armed())

	_, err := f.repo.Load(ctx)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	t.Run("reactive refresh reports an expired session", func(t *testing.T) {
		_, err := f.manager.Refresh(ctx)
		require.ErrorIs(t, err, errors.ErrSessionExpired)
	})
}

func TestManager_RefreshRejectsEmptyBundle(t *testing.T) {
	f := setupManager(t, 100)
	f.api.resp = token.Response{AccessToken: "access-2"}
	ctx := context.Background()

	_, err := f.manager.Refresh(ctx)
	require.ErrorIs(t, err, errors.ErrSessionExpired)
	require.Equal(t, auth.StateUnauthenticated, f.manager.State())
}

func TestManager_RefreshKeepsRefreshTokenWhenOmitted(t *testing.T) {
	f := setupManager(t, 100)
	f.api.resp = token.Response{AccessToken: "access-2", ExpiresIn: 100}
	ctx := context.Background()

	_, err := f.manager.Refresh(ctx)
	require.NoError(t, err)

	s, err := f.repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "refresh-1", s.RefreshToken)
	require.Equal(t, 3600, s.RefreshExpiresIn)
}

func TestManager_StopDisarms(t *testing.T) {
	f := setupManager(t, 100)
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx))

	f.manager.Stop()
	f.clock.Advance(time.Hour)
	require.Zero(t, f.api.calls.Load())

	t.Run("refresh while unmounted does not arm", func(t *testing.T) {
		_, err := f.manager.Refresh(ctx)
		require.NoError(t, err)
		require.Empty(t, f.clock.armed())
	})

	t.Run("session survives", func(t *testing.T) {
		_, err := f.manager.AccessToken(ctx)
		require.NoError(t, err)
	})
}

func TestManager_Logout(t *testing.T) {
	f := setupManager(t, 100)
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx))

	require.NoError(t, f.manager.Logout(ctx))

	require.Equal(t, []string{"refresh-1"}, f.api.loggedOut)
	require.Equal(t, auth.StateUnauthenticated, f.manager.State())
	require.Empty(t, f.clock.armed())
	_, err := f.manager.AccessToken(ctx)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
	require.Zero(t, f.lost.Load())
}

func TestState_String(t *testing.T) {
	require.Equal(t, "UNAUTHENTICATED", auth.StateUnauthenticated.String())
	require.Equal(t, "AUTHENTICATED_ACTIVE", auth.StateActive.String())
	require.Equal(t, "REFRESHING", auth.StateRefreshing.String())
}

func TestManager_LogoutDuringRefresh(t *testing.T) {
	f := setupManager(t, 100)
	f.api.release = make(chan struct{})
	f.api.entered = make(chan struct{})
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := f.manager.Refresh(ctx)
		done <- err
	}()
	<-f.api.entered

	require.NoError(t, f.manager.Logout(ctx))
	close(f.api.release)

	require.ErrorIs(t, <-done, errors.ErrSessionExpired)
	require.Equal(t, auth.StateUnauthenticated, f.manager.State())
	require.Empty(t, f.clock.armed())

	_, err := f.repo.Load(ctx)
	require.ErrorIs(t, err, errors.ErrSessionNotFound, "the refreshed tokens must not bring the session back")
}
