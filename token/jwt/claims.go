// Package jwt reads claims out of bearer tokens without verifying them.
// Verification is the API's job; the client only needs to know who it is.
package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// subjectClaims are tried in order; the first non-empty one names the user.
var subjectClaims = []string{"sub", "id", "user_id"}

var parser = jwtlib.NewParser(jwtlib.WithPaddingAllowed())

// Decode returns the payload claims of a three-segment token.
func Decode(rawToken string) (jwtlib.MapClaims, error) {
	parts := strings.Split(rawToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", apperrors.ErrInvalidToken, len(parts))
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not base64: %v", apperrors.ErrInvalidToken, err)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	claims := jwtlib.MapClaims{}
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: %v", apperrors.ErrInvalidToken, err)
	}
	return claims, nil
}

// Subject extracts the user id from a token. It never fails loudly: a token
// that cannot be read is logged and reported as ("", false).
func Subject(rawToken string) (string, bool) {
	claims, err := Decode(rawToken)
	if err != nil {
		log.Warn().Err(err).Msg("token: cannot decode payload")
		return "", false
	}

	for _, name := range subjectClaims {
		if id := claimString(claims[name]); id != "" {
			return id, true
		}
	}
	log.Warn().Msg("token: payload has no sub, id or user_id claim")
	return "", false
}

func decodeSegment(seg string) ([]byte, error) {
	b, err := parser.DecodeSegment(seg)
	if err == nil {
		return b, nil
	}
	// Tokens minted by some servers use the standard alphabet.
	if l := len(seg) % 4; l > 0 {
		seg += strings.Repeat("=", 4-l)
	}
	if b, stdErr := base64.StdEncoding.DecodeString(seg); stdErr == nil {
		return b, nil
	}
	return nil, err
}

func claimString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case json.Number:
		if c.String() == "0" {
			return ""
		}
		return c.String()
	default:
		return ""
	}
}
