// Package iamclient is the gateway's HTTP client for the IAM service. Calls
// carry a bounded timeout; transport faults, timeouts, and unparseable
// responses all surface as common.ErrServiceUnavailable so that they are
// never mistaken for an authentication decision.
package iamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/logging"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

func NewClient(baseURL string, timeout time.Duration, l logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  l.With("module", "iam_client"),
	}
}

// Authenticate submits credentials to the issuer. A 401 or 400 is an
// authentication decision (common.ErrInvalidCredentials); anything else
// that is not a parseable 200 is common.ErrServiceUnavailable.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*AuthenticateResult, error) {
	result := &AuthenticateResult{}

	status, err := c.post(ctx, "/users/authenticate", authenticateRequest{Email: email, Password: password}, result)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		if result.AccessToken == "" || result.RefreshToken == "" {
			return nil, common.ErrServiceUnavailable
		}
		return result, nil
	case status == http.StatusUnauthorized || status == http.StatusBadRequest:
		return nil, common.ErrInvalidCredentials
	default:
		return nil, common.ErrServiceUnavailable
	}
}

// ValidateRefreshToken asks the issuer whether a stored refresh token is
// still good. Only a parseable 200 is a decision; everything else is a
// transient fault.
func (c *Client) ValidateRefreshToken(ctx context.Context, refreshToken string) (*ValidateResult, error) {
	result := &ValidateResult{}

	status, err := c.post(ctx, "/users/validate-refresh-token", refreshTokenRequest{RefreshToken: refreshToken}, result)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, common.ErrServiceUnavailable
	}
	return result, nil
}

// RenewTokens exchanges a refresh token for a fresh access token (and
// possibly a reissued refresh token). A 401 or 400 means the issuer
// rejected the token.
func (c *Client) RenewTokens(ctx context.Context, refreshToken string) (*RenewResult, error) {
	result := &RenewResult{}

	status, err := c.post(ctx, "/users/renew-tokens", refreshTokenRequest{RefreshToken: refreshToken}, result)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		if result.AccessToken == "" {
			return nil, common.ErrServiceUnavailable
		}
		return result, nil
	case status == http.StatusUnauthorized || status == http.StatusBadRequest:
		return nil, common.ErrRefreshTokenInvalid
	default:
		return nil, common.ErrServiceUnavailable
	}
}

// post sends the request and decodes a JSON body into out when the response
// carries one. It returns the HTTP status; transport-level failures are
// already folded into common.ErrServiceUnavailable.
func (c *Client) post(ctx context.Context, path string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "iam request failed", "path", path, "error", err.Error())
		return 0, common.ErrServiceUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.logger.Warn(ctx, "iam response unparseable", "path", path, "error", err.Error())
			return 0, common.ErrServiceUnavailable
		}
	}

	return resp.StatusCode, nil
}
