package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-swipe-client/internal/errors"
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string // the API's message or error field, when it sent one
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized:
		return errors.ErrUnauthorized
	case http.StatusNotFound:
		return errors.ErrNotFound
	case http.StatusBadRequest:
		return errors.ErrBadRequest
	default:
		return errors.ErrUpstream
	}
}

// UserMessage is the text to show the user: the server's message when
// present, otherwise a generic one.
func UserMessage(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

func newStatusError(resp *http.Response, body []byte) *StatusError {
	se := &StatusError{
		Method: resp.Request.Method,
		Path:   resp.Request.URL.Path,
		Code:   resp.StatusCode,
	}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		for _, m := range []string{eb.Message, eb.Error, eb.Detail} {
			if m != "" {
				se.Message = m
				break
			}
		}
	} else if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 && !strings.HasPrefix(s, "<") {
		se.Message = s
	}
	return se
}
