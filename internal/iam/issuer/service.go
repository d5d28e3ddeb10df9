// Package issuer implements the credential and token issuing side of the
// system: it verifies passwords against the IAM user store and mints,
// validates, and renews the signed tokens the gateway relies on.
package issuer

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/iam/config"
	"github.com/dmitrijs2005/authbridge/internal/iam/users"
	"github.com/dmitrijs2005/authbridge/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the requested email does not exist, so
// that the unknown-email path costs the same as a wrong-password path.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("authbridge-dummy-password"), bcrypt.DefaultCost)

// Tokens bundles the result of an authenticate or renew call.
// RefreshTokenUpdated reports whether RefreshToken differs from the one the
// caller presented (sliding-window renewal).
type Tokens struct {
	AccessToken         string
	RefreshToken        string
	ExpiresIn           int64
	RefreshTokenUpdated bool
}

// Validation is the result of a refresh-token check. An expired or malformed
// token is a Valid=false decision, not an error.
type Validation struct {
	Valid  bool
	Claims *token.Claims
}

type Service struct {
	repo                 Repository
	jwtSecret            []byte
	accessTokenValidity  time.Duration
	refreshTokenValidity time.Duration
	refreshRenewalBuffer time.Duration
}

// Repository is the subset of the user store the issuer needs.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                 repo,
		jwtSecret:            []byte(cfg.SecretKey),
		accessTokenValidity:  cfg.AccessTokenValidity,
		refreshTokenValidity: cfg.RefreshTokenValidity,
		refreshRenewalBuffer: cfg.RefreshRenewalBuffer,
	}
}

// Authenticate verifies the credentials and, on success, mints a fresh
// access/refresh token pair. Unknown email and wrong password both yield
// common.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*users.User, *Tokens, error) {

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same hashing effort as the found path
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, common.ErrInvalidCredentials
	}

	access, err := s.generateAccessToken(user)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	return user, &Tokens{
		AccessToken:         access,
		RefreshToken:        refresh,
		ExpiresIn:           int64(s.accessTokenValidity.Seconds()),
		RefreshTokenUpdated: true,
	}, nil
}

// ValidateRefreshToken verifies signature and expiry of a refresh token.
// The signature is authoritative; no store is consulted.
func (s *Service) ValidateRefreshToken(ctx context.Context, refreshToken string) (*Validation, error) {
	claims, err := token.Parse(refreshToken, s.jwtSecret, token.AudienceRefresh)
	if err != nil {
		// expired or malformed is a decision, not a failure
		return &Validation{Valid: false}, nil
	}
	return &Validation{Valid: true, Claims: claims}, nil
}

// RenewTokens re-verifies the refresh token and always mints a new access
// token. The refresh token itself is only reissued when it is inside the
// renewal buffer window of its life; otherwise the presented one is
// returned unchanged with RefreshTokenUpdated=false.
func (s *Service) RenewTokens(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := token.Parse(refreshToken, s.jwtSecret, token.AudienceRefresh)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, common.ErrRefreshTokenExpired
		}
		return nil, common.ErrRefreshTokenInvalid
	}

	subject := &users.User{
		ID:          claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
	}

	access, err := s.generateAccessToken(subject)
	if err != nil {
		return nil, common.ErrorInternal
	}

	result := &Tokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenValidity.Seconds()),
	}

	if time.Until(claims.ExpiresAt.Time) < s.refreshRenewalBuffer {
		refresh, err := s.generateRefreshToken(subject)
		if err != nil {
			return nil, common.ErrorInternal
		}
		result.RefreshToken = refresh
		result.RefreshTokenUpdated = true
	}

	return result, nil
}

func (s *Service) generateAccessToken(user *users.User) (string, error) {
	return token.Generate(user.ID, user.Email, user.DisplayName, s.jwtSecret, s.accessTokenValidity, token.AudienceAccess)
}

func (s *Service) generateRefreshToken(user *users.User) (string, error) {
	return token.Generate(user.ID, user.Email, user.DisplayName, s.jwtSecret, s.refreshTokenValidity, token.AudienceRefresh)
}
