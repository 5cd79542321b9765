package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-swipe-client/api"
	"github.com/jrsteele09/go-swipe-client/auth"
	"github.com/jrsteele09/go-swipe-client/carousel"
	"github.com/jrsteele09/go-swipe-client/connections"
	"github.com/jrsteele09/go-swipe-client/internal/metrics"
	"github.com/jrsteele09/go-swipe-client/profiles"
	"github.com/jrsteele09/go-swipe-client/sessions"
)

// viewer is one browser's mounted session: its lifecycle manager and the
// per-page state that the browser would otherwise keep itself.
type viewer struct {
	id       string
	manager  *auth.Manager
	client   *api.Client
	profiles *profiles.Loader
	board    *connections.Board
	photos   carousel.Carousel // over the user's own photos

	lastSeen atomic.Int64 // unix nanoseconds
}

func (v *viewer) touch(now time.Time) {
	v.lastSeen.Store(now.UnixNano())
}

// userID is the id of the logged in user, taken from the stored session.
func (v *viewer) userID(ctx context.Context) (string, error) {
	s, err := v.manager.Session(ctx)
	if err != nil {
		return "", err
	}
	return s.UserID, nil
}

type viewers struct {
	mu   sync.Mutex
	byID map[string]*viewer
}

func newViewers() *viewers {
	return &viewers{byID: make(map[string]*viewer)}
}

func (vs *viewers) get(id string) (*viewer, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v, ok := vs.byID[id]
	return v, ok
}

// add keeps v unless another request mounted the same session first, in
// which case that one is returned.
func (vs *viewers) add(v *viewer) (*viewer, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if existing, ok := vs.byID[v.id]; ok {
		return existing, false
	}
	vs.byID[v.id] = v
	metrics.MountedSessions.Set(float64(len(vs.byID)))
	return v, true
}

func (vs *viewers) remove(v *viewer) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.byID[v.id] == v {
		delete(vs.byID, v.id)
	}
	metrics.MountedSessions.Set(float64(len(vs.byID)))
}

// unmountIdle stops viewers last seen before cutoff and returns how many.
func (vs *viewers) unmountIdle(cutoff time.Time) int {
	return vs.unmountWhere(func(v *viewer) bool {
		return v.lastSeen.Load() < cutoff.UnixNano()
	})
}

func (vs *viewers) unmountAll() {
	vs.unmountWhere(func(*viewer) bool { return true })
}

func (vs *viewers) unmountWhere(match func(*viewer) bool) int {
	vs.mu.Lock()
	var stopped []*viewer
	for id, v := range vs.byID {
		if match(v) {
			stopped = append(stopped, v)
			delete(vs.byID, id)
		}
	}
	metrics.MountedSessions.Set(float64(len(vs.byID)))
	vs.mu.Unlock()

	for _, v := range stopped {
		v.manager.Stop()
	}
	return len(stopped)
}

// mount returns the viewer of browser session id, starting its lifecycle
// manager on first use. It fails when no complete session is stored.
func (s *Server) mount(ctx context.Context, id string) (*viewer, error) {
	now := s.nowTime()
	if v, ok := s.viewers.get(id); ok {
		v.touch(now)
		return v, nil
	}

	v, err := s.newViewer(id)
	if err != nil {
		return nil, err
	}
	if err := v.manager.Start(ctx); err != nil {
		return nil, err
	}
	v.touch(now)

	kept, added := s.viewers.add(v)
	if !added {
		v.manager.Stop()
		kept.touch(now)
	}
	return kept, nil
}

func (s *Server) newViewer(id string) (*viewer, error) {
	v := &viewer{id: id}

	opts := append([]auth.ManagerOption{
		auth.WithOnUnauthenticated(func() { s.viewers.remove(v) }),
	}, s.managerOptions...)
	manager, err := auth.NewManager(sessions.Scoped(s.sessions, id), s.api, opts...)
	if err != nil {
		return nil, err
	}

	v.manager = manager
	v.client = s.api.WithTransport(auth.NewTransport(s.api.Transport(), manager))

	aggregator := profiles.NewAggregator(v.client, profiles.WithNowTime(s.nowTime))
	v.profiles = profiles.NewLoader(aggregator, s.cache)
	v.board = connections.NewBoard(
		connections.NewAggregator(v.client, aggregator, s.config.GetFetchConcurrency()),
		v.client,
		api.DefaultPage,
		s.config.GetPageLimit(),
	)
	return v, nil
}
