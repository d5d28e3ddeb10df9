package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, localUserID int64, tokenValue, externalToken string, expiresAt time.Time) error {

	query :=
		`INSERT INTO refresh_tokens (local_user_id, token, external_token, expires_at)
         VALUES ($1, $2, $3, $4)
		 ON CONFLICT (local_user_id)
		 DO UPDATE SET token = EXCLUDED.token,
		               external_token = EXCLUDED.external_token,
		               expires_at = EXCLUDED.expires_at,
		               created_at = now()
		 `

	_, err := r.db.ExecContext(ctx, query, localUserID, tokenValue, externalToken, expiresAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return nil
}

func (r *PostgresRepository) FindByLocalUserID(ctx context.Context, localUserID int64) (*RefreshTokenRecord, error) {
	query :=
		`SELECT local_user_id, token, external_token, expires_at, created_at
		 FROM refresh_tokens
		 WHERE local_user_id = $1
		 `

	rec := &RefreshTokenRecord{}
	err := r.db.QueryRowContext(ctx, query, localUserID).
		Scan(&rec.LocalUserID, &rec.Token, &rec.ExternalToken, &rec.ExpiresAt, &rec.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, localUserID int64) error {
	query := `DELETE FROM refresh_tokens WHERE local_user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, localUserID); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < now()`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %v", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %v", err)
	}

	return affected, nil
}
