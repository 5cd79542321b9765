package sessions_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/sessions"
	"github.com/jrsteele09/go-swipe-client/token"
	"github.com/stretchr/testify/require"
)

func complete() sessions.Session {
	return sessions.Session{
		AccessToken:      "access-1",
		RefreshToken:     "refresh-1",
		ExpiresIn:        100,
		RefreshExpiresIn: 3600,
		UserID:           "u-1",
	}
}

func TestSession_Valid(t *testing.T) {
	require.True(t, complete().Valid())

	for name, mutate := range map[string]func(*sessions.Session){
		"no access token":     func(s *sessions.Session) { s.AccessToken = "" },
		"no refresh token":    func(s *sessions.Session) { s.RefreshToken = "" },
		"no access lifetime":  func(s *sessions.Session) { s.ExpiresIn = 0 },
		"no refresh lifetime": func(s *sessions.Session) { s.RefreshExpiresIn = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			s := complete()
			mutate(&s)
			require.False(t, s.Valid())
		})
	}

	t.Run("user id is optional", func(t *testing.T) {
		s := complete()
		s.UserID = ""
		require.True(t, s.Valid())
	})
}

func TestSession_Renewed(t *testing.T) {
	t.Run("rotated refresh token", func(t *testing.T) {
		next := complete().Renewed(token.Response{
			AccessToken:      "access-2",
			RefreshToken:     "refresh-2",
			ExpiresIn:        200,
			RefreshExpiresIn: 7200,
		})
		require.Equal(t, "access-2", next.AccessToken)
		require.Equal(t, "refresh-2", next.RefreshToken)
		require.Equal(t, 200, next.ExpiresIn)
		require.Equal(t, 7200, next.RefreshExpiresIn)
		require.Equal(t, "u-1", next.UserID)
	})

	t.Run("refresh token omitted keeps the old one", func(t *testing.T) {
		next := complete().Renewed(token.Response{AccessToken: "access-2", ExpiresIn: 200})
		require.Equal(t, "refresh-1", next.RefreshToken)
		require.Equal(t, 3600, next.RefreshExpiresIn)
		require.True(t, next.Valid())
	})
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewInMemoryStore()
	repo := sessions.Scoped(store, "browser-1")

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	require.NoError(t, repo.Save(ctx, complete()))
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, complete(), got)

	t.Run("other browser sessions are isolated", func(t *testing.T) {
		_, err := sessions.Scoped(store, "browser-2").Load(ctx)
		require.ErrorIs(t, err, errors.ErrSessionNotFound)
	})

	t.Run("save rejects incomplete sessions", func(t *testing.T) {
		s := complete()
		s.RefreshToken = ""
		require.Error(t, repo.Save(ctx, s))
	})

	t.Run("partial session is treated as absent and removed", func(t *testing.T) {
		partial := complete()
		partial.ExpiresIn = 0
		require.NoError(t, store.Upsert(ctx, "browser-3", partial))

		_, err := sessions.Scoped(store, "browser-3").Load(ctx)
		require.ErrorIs(t, err, errors.ErrSessionNotFound)

		_, err = store.Get(ctx, "browser-3")
		require.ErrorIs(t, err, errors.ErrSessionNotFound)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, repo.Clear(ctx))
		_, err := repo.Load(ctx)
		require.ErrorIs(t, err, errors.ErrSessionNotFound)
		require.NoError(t, repo.Clear(ctx))
	})
}

func TestSealer(t *testing.T) {
	sealer, err := sessions.NewSealer("correct horse battery staple")
	require.NoError(t, err)

	sealed, err := sealer.Seal("browser-1", []byte(`{"authToken":"a"}`))
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "authToken")

	plain, err := sealer.Open("browser-1", sealed)
	require.NoError(t, err)
	require.Equal(t, `{"authToken":"a"}`, string(plain))

	t.Run("bound to id", func(t *testing.T) {
		_, err := sealer.Open("browser-2", sealed)
		require.Error(t, err)
	})

	t.Run("other secret cannot open", func(t *testing.T) {
		other, err := sessions.NewSealer("another secret")
		require.NoError(t, err)
		_, err = other.Open("browser-1", sealed)
		require.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := sealer.Open("browser-1", sealed[:5])
		require.Error(t, err)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := sessions.NewSealer("")
		require.Error(t, err)
	})
}
