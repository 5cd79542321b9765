package connections

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jrsteele09/go-swipe-client/carousel"
	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/internal/metrics"
	"github.com/jrsteele09/go-swipe-client/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// NoticeMatchesStale is shown when a like went through but the matches could
// not be fetched again afterwards.
const NoticeMatchesStale = "Свайп выполнен, но список совпадений не удалось обновить."

// DecisionAPI submits likes and dislikes.
type DecisionAPI interface {
	SubmitDecision(ctx context.Context, targetID string, like bool) error
}

// View is what the connections page shows.
type View struct {
	Matches    []users.Profile `json:"matches"`
	Swipes     []users.Profile `json:"swipes"`
	MatchIndex int             `json:"match_index"`
	PhotoIndex int             `json:"photo_index"`
	Notice     string          `json:"notice,omitempty"`
}

// Board holds the connection lists of one browsing context.
type Board struct {
	lists     *Aggregator
	decisions DecisionAPI
	page      int
	limit     int

	mu      sync.RWMutex
	matches []users.Profile
	swipes  []users.Profile
	match   carousel.Carousel // over matches
	photo   carousel.Carousel // over the current match's photos
	notice  string
}

func NewBoard(lists *Aggregator, decisions DecisionAPI, page, limit int) *Board {
	return &Board{lists: lists, decisions: decisions, page: page, limit: limit}
}

// Load replaces both lists. They are fetched concurrently and both must
// succeed; on failure the previous lists are kept.
func (b *Board) Load(ctx context.Context) error {
	var matches, swipes []users.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		matches, err = b.lists.FetchList(gctx, KindMatches, b.page, b.limit)
		return err
	})
	g.Go(func() (err error) {
		swipes, err = b.lists.FetchList(gctx, KindSwipes, b.page, b.limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("[Board Load] %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.swipes = swipes
	b.setMatchesLocked(matches)
	return nil
}

func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return View{
		Matches:    slices.Clone(nonNil(b.matches)),
		Swipes:     slices.Clone(nonNil(b.swipes)),
		MatchIndex: b.match.Index(),
		PhotoIndex: b.photo.Index(),
		Notice:     b.notice,
	}
}

func (b *Board) Matches() []users.Profile {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.matches)
}

func (b *Board) Swipes() []users.Profile {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.swipes)
}

// CurrentMatch is the match under the carousel cursor.
func (b *Board) CurrentMatch() (users.Profile, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.currentLocked()
}

func (b *Board) NextMatch() int { return b.moveMatch(b.match.Next) }
func (b *Board) PrevMatch() int { return b.moveMatch(b.match.Prev) }

// MoveMatch accepts "next" or "prev".
func (b *Board) MoveMatch(direction string) (int, bool) {
	switch direction {
	case "next":
		return b.NextMatch(), true
	case "prev":
		return b.PrevMatch(), true
	default:
		return b.match.Index(), false
	}
}

// moveMatch changes the current match and starts its photos from the first.
func (b *Board) moveMatch(step func() int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := step()
	b.resetPhotoLocked()
	return i
}

func (b *Board) NextPhoto() int { return b.photo.Next() }
func (b *Board) PrevPhoto() int { return b.photo.Prev() }

// MovePhoto accepts "next" or "prev".
func (b *Board) MovePhoto(direction string) (int, bool) {
	return b.photo.Move(direction)
}

// Decide likes or dislikes targetID. On success the target leaves the swipe
// list and, for a like, matches are fetched again since a new one may exist.
// On failure nothing changes. A like whose matches cannot be fetched again
// still succeeds; the view then carries NoticeMatchesStale until the matches
// are next loaded.
func (b *Board) Decide(ctx context.Context, targetID string, like bool) error {
	err := b.decisions.SubmitDecision(ctx, targetID, like)
	metrics.Decisions.WithLabelValues(decisionLabel(like), metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("[Board Decide] %s: %w", targetID, err)
	}

	b.mu.Lock()
	b.swipes = slices.DeleteFunc(b.swipes, func(p users.Profile) bool { return p.ID == targetID })
	b.mu.Unlock()

	if !like {
		return nil
	}

	matches, err := b.lists.FetchList(ctx, KindMatches, b.page, b.limit)
	if err != nil {
		if errors.Is(err, errors.ErrSessionExpired) || errors.Is(err, errors.ErrSessionNotFound) {
			return err
		}
		log.Err(err).Str("target_id", targetID).Msg("refreshing matches after like failed")
		b.mu.Lock()
		b.notice = NoticeMatchesStale
		b.mu.Unlock()
		return nil
	}
	b.mu.Lock()
	b.setMatchesLocked(matches)
	b.mu.Unlock()
	return nil
}

func (b *Board) setMatchesLocked(matches []users.Profile) {
	b.matches = matches
	b.notice = ""
	b.match.Reset(len(matches))
	b.resetPhotoLocked()
}

func (b *Board) resetPhotoLocked() {
	current, ok := b.currentLocked()
	if !ok {
		b.photo.Reset(0)
		return
	}
	b.photo.Reset(len(current.Photos))
}

func (b *Board) currentLocked() (users.Profile, bool) {
	if len(b.matches) == 0 {
		return users.Profile{}, false
	}
	return b.matches[b.match.Index()], true
}

func decisionLabel(like bool) string {
	if like {
		return "like"
	}
	return "dislike"
}

func nonNil(p []users.Profile) []users.Profile {
	if p == nil {
		return []users.Profile{}
	}
	return p
}

