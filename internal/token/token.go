// Package token mints and verifies the signed credentials exchanged between
// the IAM service, the gateway, and clients. Both token kinds are HS256 JWTs
// signed with a secret shared by the two services; the audience claim is what
// keeps an access token from being replayed as a refresh token and vice versa.
package token

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim stamped on every token either service mints.
const Issuer = "authbridge"

const (
	// AudienceAccess marks short-lived access tokens.
	AudienceAccess = "user-access"
	// AudienceRefresh marks long-lived refresh tokens.
	AudienceRefresh = "token-refresh"
)

// Claims carries the registered claims plus the subject's identity fields.
// UserID is the id in the minting service's own user-id space.
type Claims struct {
	jwt.RegisteredClaims
	UserID      int64  `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
}

// Generate mints a signed token for the given subject with the given
// validity and audience.
func Generate(userID int64, email, displayName string, secret []byte, validity time.Duration, audience string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID:      userID,
		Email:       email,
		DisplayName: displayName,
	})

	signed, err := t.SignedString(secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Parse verifies the token's signature, expiry, issuer, and audience and
// returns its claims. Expired tokens yield common.ErrTokenExpired; every
// other verification failure yields common.ErrInvalidToken.
func Parse(tokenString string, secret []byte, audience string) (*Claims, error) {
	claims := &Claims{}

	t, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !t.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// Expiry decodes the token without verifying its signature and returns the
// embedded expiry. Used to spot obviously stale stored tokens before going
// to the issuer; the issuer remains the authority on validity.
func Expiry(tokenString string) (time.Time, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, common.ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, common.ErrInvalidToken
	}
	return claims.ExpiresAt.Time, nil
}
