package sessions

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert creates or replaces the record for the given local user. The
	// single-row-per-user invariant is enforced by a unique constraint on
	// local_user_id plus ON CONFLICT ... DO UPDATE, so concurrent logins
	// and renewals serialize at the database.
	Upsert(ctx context.Context, localUserID int64, tokenValue, externalToken string, expiresAt time.Time) error
	FindByLocalUserID(ctx context.Context, localUserID int64) (*RefreshTokenRecord, error)
	Delete(ctx context.Context, localUserID int64) error
	// DeleteExpired removes every record whose expiry has passed. Idempotent
	// and safe to run concurrently with reads.
	DeleteExpired(ctx context.Context) (int64, error)
}
