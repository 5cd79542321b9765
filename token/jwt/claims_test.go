package jwt_test

import (
	"encoding/base64"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/token/jwt"
	"github.com/stretchr/testify/require"
)

// signed builds a real HS256 token; the codec must not care about the signature.
func signed(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func withPayload(payload string, enc *base64.Encoding) string {
	return "eyJhbGciOiJub25lIn0." + enc.EncodeToString([]byte(payload)) + ".sig"
}

func TestSubject(t *testing.T) {
	t.Run("sub wins", func(t *testing.T) {
		id, ok := jwt.Subject(signed(t, jwtlib.MapClaims{"sub": "u-1", "id": "u-2", "user_id": "u-3"}))
		require.True(t, ok)
		require.Equal(t, "u-1", id)
	})

	t.Run("id when sub missing", func(t *testing.T) {
		id, ok := jwt.Subject(signed(t, jwtlib.MapClaims{"id": "u-2", "user_id": "u-3"}))
		require.True(t, ok)
		require.Equal(t, "u-2", id)
	})

	t.Run("user_id last", func(t *testing.T) {
		id, ok := jwt.Subject(signed(t, jwtlib.MapClaims{"sub": "", "user_id": "u-3"}))
		require.True(t, ok)
		require.Equal(t, "u-3", id)
	})

	t.Run("numeric id", func(t *testing.T) {
		id, ok := jwt.Subject(withPayload(`{"id":1234567890123}`, base64.RawURLEncoding))
		require.True(t, ok)
		require.Equal(t, "1234567890123", id)
	})

	t.Run("padded and standard alphabet payloads", func(t *testing.T) {
		id, ok := jwt.Subject(withPayload(`{"sub":"padded"}`, base64.URLEncoding))
		require.True(t, ok)
		require.Equal(t, "padded", id)

		id, ok = jwt.Subject(withPayload(`{"sub":"??>>"}`, base64.StdEncoding))
		require.True(t, ok)
		require.Equal(t, "??>>", id)
	})

	t.Run("no subject claim", func(t *testing.T) {
		id, ok := jwt.Subject(signed(t, jwtlib.MapClaims{"email": "a@b.c"}))
		require.False(t, ok)
		require.Empty(t, id)
	})
}

func TestSubject_Malformed(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":          "",
		"one segment":    "abc",
		"two segments":   "abc.def",
		"four segments":  "a.b.c.d",
		"not base64":     "a.!!!.c",
		"not json":       withPayload("not json", base64.RawURLEncoding),
		"json array":     withPayload(`["sub"]`, base64.RawURLEncoding),
		"truncated json": withPayload(`{"sub":`, base64.RawURLEncoding),
	} {
		t.Run(name, func(t *testing.T) {
			require.NotPanics(t, func() {
				id, ok := jwt.Subject(raw)
				require.False(t, ok)
				require.Empty(t, id)
			})
		})
	}
}

func TestDecode_WrapsInvalidToken(t *testing.T) {
	_, err := jwt.Decode("a.b")
	require.ErrorIs(t, err, errors.ErrInvalidToken)
}
