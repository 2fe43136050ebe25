package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) (*models.Session, error) {
	s := &models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(validity),
	}

	query :=
		`INSERT INTO sessions (token, user_id, expires_at)
         VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, s.Token, s.UserID, s.ExpiresAt).Scan(&s.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.Session, error) {
	query :=
		`SELECT token, user_id, expires_at, created_at FROM sessions
		 WHERE token = $1
		 `

	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
