package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, 2*time.Second)
	require.NoError(t, err)
	return srv, c
}

func TestLogin_StoresCookieAndSession(t *testing.T) {
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@x.com", req.Email)

		http.SetCookie(w, &http.Cookie{Name: common.AccessTokenCookieName, Value: "tok", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(loginResponse{User: &User{ID: 5, Email: "a@x.com", DisplayName: "Alice"}, ExpiresIn: 120})
	})

	user, err := c.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)

	assert.True(t, c.Session().Active())
	assert.Equal(t, "a@x.com", c.Session().User().Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Login(context.Background(), "a@x.com", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.False(t, c.Session().Active())
}

func TestLogin_RateLimited(t *testing.T) {
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Login(context.Background(), "a@x.com", "secret")
	assert.ErrorIs(t, err, common.ErrTooManyRequests)
}

func TestRenewToken_SendsCookieAndHeader(t *testing.T) {
	var sawRenew bool
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: common.AccessTokenCookieName, Value: "tok", Path: "/"})
			_ = json.NewEncoder(w).Encode(loginResponse{User: &User{ID: 5, Email: "a@x.com"}})
		case "/auth/renew-token":
			sawRenew = true
			assert.Equal(t, "5", r.Header.Get(common.UserIDHeaderName))
			cookie, err := r.Cookie(common.AccessTokenCookieName)
			require.NoError(t, err)
			assert.Equal(t, "tok", cookie.Value)
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	_, err := c.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	require.NoError(t, c.RenewToken(context.Background()))
	assert.True(t, sawRenew)
}

func TestRenewToken_NotLoggedIn(t *testing.T) {
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	err := c.RenewToken(context.Background())
	assert.ErrorIs(t, err, common.ErrNoActiveSession)
}

func TestRenewToken_RejectionClearsSession(t *testing.T) {
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(loginResponse{User: &User{ID: 5, Email: "a@x.com"}})
		case "/auth/renew-token":
			w.WriteHeader(http.StatusUnauthorized)
		}
	})

	_, err := c.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	err = c.RenewToken(context.Background())
	assert.ErrorIs(t, err, common.ErrNoActiveSession)
	assert.False(t, c.Session().Active())
}

func TestRenewToken_OutageKeepsSession(t *testing.T) {
	srv, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			_ = json.NewEncoder(w).Encode(loginResponse{User: &User{ID: 5, Email: "a@x.com"}})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	err = c.RenewToken(context.Background())
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	assert.True(t, c.Session().Active())

	// unreachable gateway behaves the same
	srv.Close()
	err = c.RenewToken(context.Background())
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	assert.True(t, c.Session().Active())
}

func TestCheckSession(t *testing.T) {
	valid := true
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/session" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(sessionResponse{Valid: valid, User: &User{ID: 5, Email: "a@x.com"}})
	})

	got, err := c.CheckSession(context.Background())
	require.NoError(t, err)
	assert.True(t, got)
	// a confirmed session populates the local context
	assert.True(t, c.Session().Active())

	valid = false
	got, err = c.CheckSession(context.Background())
	require.NoError(t, err)
	assert.False(t, got)
}

func TestLogout_ClearsSessionEvenWhenUnreachable(t *testing.T) {
	srv, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			_ = json.NewEncoder(w).Encode(loginResponse{User: &User{ID: 5, Email: "a@x.com"}})
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	_, err := c.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	srv.Close()
	err = c.Logout(context.Background())
	assert.Error(t, err)
	assert.False(t, c.Session().Active())
}
