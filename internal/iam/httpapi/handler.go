// Package httpapi exposes the IAM service over HTTP: the authentication and
// token endpoints consumed by the gateway, plus plain user CRUD.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/iam/issuer"
	"github.com/dmitrijs2005/authbridge/internal/iam/users"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	users  *users.Service
	issuer *issuer.Service
	logger logging.Logger
}

func NewHandler(us *users.Service, is *issuer.Service, l logging.Logger) *Handler {
	return &Handler{users: us, issuer: is, logger: l.With("module", "iam_httpapi")}
}

// userJSON is the wire projection of a user. The password hash never leaves
// this service.
type userJSON struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"external_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserJSON(u *users.User) userJSON {
	return userJSON{
		ID:          u.ID,
		ExternalID:  u.ExternalID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authenticateResponse struct {
	User         userJSON `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
}

type validateResponse struct {
	Valid   bool            `json:"valid"`
	Payload *payloadSummary `json:"payload,omitempty"`
}

type payloadSummary struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

type renewResponse struct {
	AccessToken         string `json:"access_token"`
	RefreshToken        string `json:"refresh_token"`
	ExpiresIn           int64  `json:"expires_in"`
	RefreshTokenUpdated bool   `json:"refresh_token_updated"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "email and password are required"})
		return
	}

	user, tokens, err := h.issuer.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid credentials"})
			return
		}
		h.logger.Error(r.Context(), "authenticate failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, authenticateResponse{
		User:         toUserJSON(user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

func (h *Handler) ValidateRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "refresh_token is required"})
		return
	}

	v, err := h.issuer.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Error(r.Context(), "validate refresh token failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
		return
	}

	resp := validateResponse{Valid: v.Valid}
	if v.Valid {
		resp.Payload = &payloadSummary{UserID: v.Claims.UserID, Email: v.Claims.Email, Name: v.Claims.DisplayName}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RenewTokens(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "refresh_token is required"})
		return
	}

	tokens, err := h.issuer.RenewTokens(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRefreshTokenExpired):
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Refresh token expired"})
		case errors.Is(err, common.ErrRefreshTokenInvalid):
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid refresh token"})
		default:
			h.logger.Error(r.Context(), "renew tokens failed", "error", err.Error())
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, renewResponse{
		AccessToken:         tokens.AccessToken,
		RefreshToken:        tokens.RefreshToken,
		ExpiresIn:           tokens.ExpiresIn,
		RefreshTokenUpdated: tokens.RefreshTokenUpdated,
	})
}

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "list users failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
		return
	}

	result := make([]userJSON, 0, len(list))
	for _, u := range list {
		result = append(result, toUserJSON(u))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid user id"})
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse{Message: "User not found"})
			return
		}
		h.logger.Error(r.Context(), "get user failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, toUserJSON(user))
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "email and password are required"})
		return
	}

	user, err := h.users.Create(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "User already exists"})
			return
		}
		h.logger.Error(r.Context(), "create user failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, toUserJSON(user))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid user id"})
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}

	user, err := h.users.Update(r.Context(), id, req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse{Message: "User not found"})
			return
		}
		h.logger.Error(r.Context(), "update user failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, toUserJSON(user))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid user id"})
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse{Message: "User not found"})
			return
		}
		h.logger.Error(r.Context(), "delete user failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted"})
}
