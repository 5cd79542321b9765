// Package api is the client of the dating API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-swipe-client/internal/errors"
	"github.com/jrsteele09/go-swipe-client/token"
	"github.com/jrsteele09/go-swipe-client/users"
)

const (
	DefaultPage  = 0
	DefaultLimit = 10

	maxBodySize = 1 << 20
)

// Client calls the API. The token endpoints go through the plain transport;
// every other call goes through the authorized one set with WithTransport.
type Client struct {
	baseURL string
	plain   *http.Client
	authed  *http.Client
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, rt http.RoundTripper) *Client {
	if rt == nil {
		rt = http.DefaultTransport
	}
	plain := &http.Client{Transport: rt}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		plain:   plain,
		authed:  plain,
	}
}

// WithTransport returns a copy whose resource calls use rt, typically an
// auth.Transport bound to one browsing context.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	cp := *c
	cp.authed = &http.Client{Transport: rt}
	return &cp
}

// Transport returns the round tripper the token endpoints use, the base for
// per-context authorized transports.
func (c *Client) Transport() http.RoundTripper {
	return c.plain.Transport
}

// ExchangeCode trades an authorization code for a token bundle.
func (c *Client) ExchangeCode(ctx context.Context, code string) (token.Response, error) {
	var resp token.Response
	q := url.Values{"code": {code}}
	err := c.do(ctx, c.plain, http.MethodPost, "/auth/callback?"+q.Encode(), "application/x-www-form-urlencoded", nil, &resp)
	return resp, err
}

// Refresh trades a refresh token for a new bundle.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (token.Response, error) {
	var resp token.Response
	q := url.Values{"refresh_token": {refreshToken}}
	err := c.do(ctx, c.plain, http.MethodPost, "/auth/refresh?"+q.Encode(), "application/json", nil, &resp)
	return resp, err
}

// Logout revokes the refresh token upstream.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	q := url.Values{"refresh_token": {refreshToken}}
	return c.do(ctx, c.plain, http.MethodPost, "/auth/logout?"+q.Encode(), "application/json", nil, nil)
}

// EnsureProfile creates the user's profile. A 400 means it already exists,
// which is confirmed by reading it back.
func (c *Client) EnsureProfile(ctx context.Context, p users.NewProfile) error {
	err := c.postJSON(ctx, "/users", p)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errors.ErrBadRequest) {
		return err
	}
	if _, err := c.GetUser(ctx, p.ID); err != nil {
		return fmt.Errorf("[Client EnsureProfile] profile neither created nor found: %w", err)
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, id string) (users.Record, error) {
	var rec users.Record
	err := c.get(ctx, "/users/"+url.PathEscape(id), &rec)
	return rec, err
}

func (c *Client) GetPhotos(ctx context.Context, id string) ([]users.Photo, error) {
	var photos []users.Photo
	err := c.get(ctx, "/users/"+url.PathEscape(id)+"/photos", &photos)
	return photos, err
}

func (c *Client) GetTags(ctx context.Context, id string) ([]users.RawTag, error) {
	var tags []users.RawTag
	err := c.get(ctx, "/users/"+url.PathEscape(id)+"/tags", &tags)
	return tags, err
}

// ListMatches returns a page of user ids the caller has matched with.
func (c *Client) ListMatches(ctx context.Context, page, limit int) ([]string, error) {
	return c.listIDs(ctx, "/matches", page, limit)
}

// ListSwipes returns a page of ids of users who liked the caller.
func (c *Client) ListSwipes(ctx context.Context, page, limit int) ([]string, error) {
	return c.listIDs(ctx, "/swipes", page, limit)
}

type decision struct {
	TargetID string `json:"targetId"`
	Like     bool   `json:"like"`
}

// SubmitDecision likes or dislikes targetID.
func (c *Client) SubmitDecision(ctx context.Context, targetID string, like bool) error {
	return c.postJSON(ctx, "/swipes", decision{TargetID: targetID, Like: like})
}

func (c *Client) listIDs(ctx context.Context, path string, page, limit int) ([]string, error) {
	if page < 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}

	var raw []json.RawMessage
	if err := c.get(ctx, path+"?"+q.Encode(), &raw); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		id, err := decodeID(r)
		if err != nil {
			return nil, fmt.Errorf("[Client listIDs] %s: %w", path, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// decodeID accepts ids sent as JSON strings or numbers.
func decodeID(r json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(r, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("id %s is neither a string nor a number", string(r))
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, c.authed, http.MethodGet, path, "application/json", nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, c.authed, http.MethodPost, path, "application/json", body, nil)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path, contentType string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("[Client do] build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("[Client do] %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("[Client do] read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("[Client do] decode %s %s: %w", method, req.URL.Path, err)
	}
	return nil
}
