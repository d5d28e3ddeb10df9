package mappings

import (
	"context"

	"github.com/dmitrijs2005/authbridge/internal/dbx"
)

type Repository interface {
	// Create inserts a mapping. A unique violation on either column yields
	// common.ErrMappingConflict; the caller is expected to re-read the
	// winning row rather than fail the login.
	Create(ctx context.Context, tx dbx.DBTX, iamUserID, localUserID int64) (*Mapping, error)
	FindLocalIDByIamID(ctx context.Context, iamUserID int64) (int64, error)
	FindIamIDByLocalID(ctx context.Context, localUserID int64) (int64, error)
	// Exists reports whether either side already participates in a mapping.
	// Read-only diagnostic; the unique indexes are what enforce 1:1, so the
	// login path never consults this before inserting.
	Exists(ctx context.Context, iamUserID, localUserID int64) (bool, error)
}
