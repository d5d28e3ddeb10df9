package iamclient

import "time"

// Wire contracts for the IAM /api/v1 endpoints the gateway consumes. Every
// cross-service payload is parsed into one of these structs; responses that
// do not parse are treated as an unavailable issuer, never passed through.

type IamUser struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"external_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type authenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthenticateResult struct {
	User         IamUser `json:"user"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    int64   `json:"expires_in"`
}

type ValidatePayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type ValidateResult struct {
	Valid   bool             `json:"valid"`
	Payload *ValidatePayload `json:"payload,omitempty"`
}

type RenewResult struct {
	AccessToken         string `json:"access_token"`
	RefreshToken        string `json:"refresh_token"`
	ExpiresIn           int64  `json:"expires_in"`
	RefreshTokenUpdated bool   `json:"refresh_token_updated"`
}
