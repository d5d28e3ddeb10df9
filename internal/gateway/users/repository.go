package users

import (
	"context"

	"github.com/dmitrijs2005/authbridge/internal/dbx"
)

type Repository interface {
	// Create inserts a mirror row, optionally inside a caller-supplied
	// transaction handle.
	Create(ctx context.Context, tx dbx.DBTX, user *User) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// UpdateProfile reconciles mutable fields that drifted from the
	// issuer's copy.
	UpdateProfile(ctx context.Context, id int64, email, displayName string) (*User, error)
}
