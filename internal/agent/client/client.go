// Package client is the agent's typed HTTP client for the gateway API. The
// access-token cookie lives in the client's cookie jar; the local user id
// needed for the X-User-ID header lives in an in-memory session context.
// Nothing is persisted: a restarted agent starts logged out.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
)

// User is the gateway's projection of the logged-in user.
type User struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
}

// SessionContext tracks who the agent is logged in as. Safe for concurrent
// use; the renewer reads it while the REPL mutates it.
type SessionContext struct {
	mu     sync.RWMutex
	user   *User
	active bool
}

func (s *SessionContext) set(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.active = true
}

func (s *SessionContext) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.active = false
}

// Active reports whether a login is in effect.
func (s *SessionContext) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// User returns a copy of the logged-in user, or nil.
func (s *SessionContext) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *SessionContext) userID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return 0
	}
	return s.user.ID
}

type Client struct {
	baseURL string
	http    *http.Client
	session *SessionContext
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar init error: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Jar: jar},
		session: &SessionContext{},
	}, nil
}

// Session exposes the session context for the renewer and the REPL prompt.
func (c *Client) Session() *SessionContext {
	return c.session
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      *User `json:"user"`
	ExpiresIn int64 `json:"expires_in"`
}

type sessionResponse struct {
	Valid bool  `json:"valid"`
	User  *User `json:"user,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, withUserID bool) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if withUserID {
		if id := c.session.userID(); id != 0 {
			req.Header.Set(common.UserIDHeaderName, strconv.FormatInt(id, 10))
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, common.ErrServiceUnavailable
	}
	return resp, nil
}

// Login authenticates at the gateway and records the session. The gateway
// sets the access-token cookie; the jar keeps it for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusBadRequest:
		return nil, common.ErrInvalidCredentials
	case http.StatusTooManyRequests:
		return nil, common.ErrTooManyRequests
	default:
		return nil, common.ErrServiceUnavailable
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.User == nil {
		return nil, common.ErrServiceUnavailable
	}

	c.session.set(body.User)
	return body.User, nil
}

// RenewToken asks the gateway for a fresh access token. A definite
// rejection clears the local session and yields ErrNoActiveSession; a
// gateway outage leaves it untouched.
func (c *Client) RenewToken(ctx context.Context) error {
	if !c.session.Active() {
		return common.ErrNoActiveSession
	}

	resp, err := c.do(ctx, http.MethodPost, "/auth/renew-token", nil, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		c.session.clear()
		return common.ErrNoActiveSession
	default:
		return common.ErrServiceUnavailable
	}
}

// CheckSession runs the gateway's session probe. The first return value is
// the gateway's verdict; an error means no verdict could be obtained.
func (c *Client) CheckSession(ctx context.Context) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/session", nil, true)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, common.ErrServiceUnavailable
	}

	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, common.ErrServiceUnavailable
	}

	if body.Valid && body.User != nil {
		c.session.set(body.User)
	}
	return body.Valid, nil
}

// Logout ends the session at the gateway and locally. The local state is
// cleared even when the gateway cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, true)
	c.session.clear()
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return common.ErrServiceUnavailable
	}
	return nil
}
