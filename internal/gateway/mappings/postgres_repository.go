package mappings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, tx dbx.DBTX, iamUserID, localUserID int64) (*Mapping, error) {

	var q dbx.DBTX = r.db
	if tx != nil {
		q = tx
	}

	query :=
		`INSERT INTO iam_user_mappings (iam_user_id, local_user_id)
         VALUES ($1, $2)
		 RETURNING created_at
		 `

	m := &Mapping{IamUserID: iamUserID, LocalUserID: localUserID}
	err := q.QueryRowContext(ctx, query, iamUserID, localUserID).Scan(&m.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrMappingConflict
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return m, nil
}

func (r *PostgresRepository) FindLocalIDByIamID(ctx context.Context, iamUserID int64) (int64, error) {
	query := `SELECT local_user_id FROM iam_user_mappings WHERE iam_user_id = $1`

	var localUserID int64
	err := r.db.QueryRowContext(ctx, query, iamUserID).Scan(&localUserID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("error performing sql request: %v", err)
	}

	return localUserID, nil
}

func (r *PostgresRepository) FindIamIDByLocalID(ctx context.Context, localUserID int64) (int64, error) {
	query := `SELECT iam_user_id FROM iam_user_mappings WHERE local_user_id = $1`

	var iamUserID int64
	err := r.db.QueryRowContext(ctx, query, localUserID).Scan(&iamUserID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("error performing sql request: %v", err)
	}

	return iamUserID, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, iamUserID, localUserID int64) (bool, error) {
	// the mapping is strictly 1:1, so a match on either column counts
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM iam_user_mappings
		   WHERE iam_user_id = $1 OR local_user_id = $2
		 )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, iamUserID, localUserID).Scan(&exists); err != nil {
		return false, fmt.Errorf("error performing sql request: %v", err)
	}

	return exists, nil
}
