// Package httpapi exposes the gateway's public authentication API: login,
// session probe, token renewal and logout. The access token travels in the
// response body and an http-only cookie; the refresh token is kept strictly
// server-side.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/gateway/auth"
	"github.com/dmitrijs2005/authbridge/internal/gateway/users"
	"github.com/dmitrijs2005/authbridge/internal/logging"
)

// AuthService is the orchestrator surface the handlers drive.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	ValidateAccessToken(ctx context.Context, accessToken string) (*users.User, error)
	Session(ctx context.Context, accessToken string, localUserHint int64) *auth.SessionResult
	RenewAccessToken(ctx context.Context, localUserID int64) (*auth.Renewal, error)
	Logout(ctx context.Context, localUserID int64) error
}

type Handler struct {
	auth                AuthService
	logger              logging.Logger
	metrics             *Metrics
	cookieSecure        bool
	accessTokenValidity time.Duration
}

func NewHandler(a AuthService, m *Metrics, cookieSecure bool, accessTokenValidity time.Duration, l logging.Logger) *Handler {
	return &Handler{
		auth:                a,
		logger:              l.With("module", "gateway_httpapi"),
		metrics:             m,
		cookieSecure:        cookieSecure,
		accessTokenValidity: accessTokenValidity,
	}
}

type userJSON struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserJSON(u *users.User) *userJSON {
	if u == nil {
		return nil
	}
	return &userJSON{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        *userJSON `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
}

type sessionResponse struct {
	Valid       bool      `json:"valid"`
	User        *userJSON `json:"user,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
}

type renewResponse struct {
	Renewed             bool   `json:"renewed"`
	AccessToken         string `json:"access_token"`
	ExpiresIn           int64  `json:"expires_in"`
	RefreshTokenUpdated bool   `json:"refresh_token_updated"`
}

type errorResponse struct {
	Error         string `json:"error"`
	RequiresLogin bool   `json:"requires_login,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// setAccessCookie places the access token in an http-only cookie scoped to
// the whole site. Script can never read it; CSRF exposure is limited by
// SameSite=Strict.
func (h *Handler) setAccessCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.accessTokenValidity.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func accessTokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(common.AccessTokenCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// localUserHint reads the X-User-ID header. Zero means no usable hint.
func localUserHint(r *http.Request) int64 {
	raw := r.Header.Get(common.UserIDHeaderName)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// Login authenticates the credentials with the issuer and establishes the
// local session. The access token goes out twice, in the http-only cookie
// for browsers and in the body for header-based clients; the refresh token
// goes out never.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			h.metrics.loginsTotal.WithLabelValues("rejected").Inc()
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		case errors.Is(err, common.ErrServiceUnavailable):
			h.metrics.loginsTotal.WithLabelValues("unavailable").Inc()
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "authentication service unavailable"})
		case errors.Is(err, common.ErrInconsistentMapping):
			h.metrics.loginsTotal.WithLabelValues("error").Inc()
			h.logger.Error(r.Context(), "identity mapping inconsistent", "email", req.Email)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		default:
			h.metrics.loginsTotal.WithLabelValues("error").Inc()
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	h.metrics.loginsTotal.WithLabelValues("ok").Inc()
	h.setAccessCookie(w, res.AccessToken)
	writeJSON(w, http.StatusOK, loginResponse{User: toUserJSON(res.User), AccessToken: res.AccessToken, ExpiresIn: res.ExpiresIn})
}

// Session answers the session probe. It always returns 200 with a definite
// verdict; a recovered session also refreshes the cookie.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	presented := accessTokenFromCookie(r)
	res := h.auth.Session(r.Context(), presented, localUserHint(r))

	access := res.AccessToken
	if res.Valid && access != "" {
		h.setAccessCookie(w, access)
	}
	if res.Valid && access == "" {
		// fast path: the presented token is still the current one
		access = presented
	}
	writeJSON(w, http.StatusOK, sessionResponse{Valid: res.Valid, User: toUserJSON(res.User), AccessToken: access})
}

// Validate checks an access token without touching the issuer: a bearer
// header if present, the cookie otherwise. Fail closed: any problem reads
// as an unauthenticated caller.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)
	if tok == "" {
		tok = accessTokenFromCookie(r)
	}
	if tok == "" {
		writeJSON(w, http.StatusUnauthorized, sessionResponse{Valid: false})
		return
	}

	user, err := h.auth.ValidateAccessToken(r.Context(), tok)
	if err != nil || user == nil {
		writeJSON(w, http.StatusUnauthorized, sessionResponse{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Valid: true, User: toUserJSON(user)})
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// RenewToken exchanges the stored refresh token for a fresh access token.
// A definite rejection tells the client a new login is required; an issuer
// outage does not.
func (h *Handler) RenewToken(w http.ResponseWriter, r *http.Request) {
	userID := localUserHint(r)
	if userID == 0 {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no session", RequiresLogin: true})
		return
	}

	res, err := h.auth.RenewAccessToken(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNoActiveSession),
			errors.Is(err, common.ErrRefreshTokenExpired),
			errors.Is(err, common.ErrRefreshTokenInvalid):
			h.metrics.renewalsTotal.WithLabelValues("rejected").Inc()
			h.clearAccessCookie(w)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "session expired", RequiresLogin: true})
		case errors.Is(err, common.ErrServiceUnavailable):
			h.metrics.renewalsTotal.WithLabelValues("unavailable").Inc()
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "authentication service unavailable"})
		default:
			h.metrics.renewalsTotal.WithLabelValues("error").Inc()
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	h.metrics.renewalsTotal.WithLabelValues("ok").Inc()
	h.setAccessCookie(w, res.AccessToken)
	writeJSON(w, http.StatusOK, renewResponse{
		Renewed:             true,
		AccessToken:         res.AccessToken,
		ExpiresIn:           res.ExpiresIn,
		RefreshTokenUpdated: res.RefreshTokenUpdated,
	})
}

// Logout drops the stored refresh token and expires the cookie. Idempotent;
// a missing session is still a successful logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID := localUserHint(r); userID != 0 {
		if err := h.auth.Logout(r.Context(), userID); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
	}

	h.clearAccessCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
