package verifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Upsert(ctx context.Context, v *models.EmailVerification) error {
	query :=
		`INSERT INTO email_verifications (email, otp, expires_at)
         VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE SET otp = EXCLUDED.otp, expires_at = EXCLUDED.expires_at, attempts = 0
		 `

	if _, err := r.db.ExecContext(ctx, query, v.Email, v.OTP, v.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindForUpdate(ctx context.Context, email string) (*models.EmailVerification, error) {
	query :=
		`SELECT email, otp, expires_at, attempts FROM email_verifications
		 WHERE email = $1
		 FOR UPDATE
		 `

	v := &models.EmailVerification{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&v.Email, &v.OTP, &v.ExpiresAt, &v.Attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) RecordFailure(ctx context.Context, email string) (int, error) {
	query :=
		`UPDATE email_verifications SET attempts = attempts + 1
		 WHERE email = $1
		 RETURNING attempts
		 `

	var attempts int
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return attempts, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM email_verifications WHERE email = $1`, email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
