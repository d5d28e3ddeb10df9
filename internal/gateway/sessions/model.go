// Package sessions is the gateway's local session store: at most one
// refresh-token record per local user. The IAM service stays the authority
// on token validity; these rows are a cache that lets the gateway recover a
// session without re-asking the user for credentials.
package sessions

import "time"

// RefreshTokenRecord is the persisted refresh token for one local user.
// ExternalToken carries the issuer's representation when it differs from
// Token; it is empty otherwise.
type RefreshTokenRecord struct {
	LocalUserID   int64
	Token         string
	ExternalToken string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}
