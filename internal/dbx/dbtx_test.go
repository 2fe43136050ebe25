package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openRegistrationDB mirrors the two tables touched by OTP verification.
func openRegistrationDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE users (username TEXT PRIMARY KEY);
		CREATE TABLE email_verifications (email TEXT PRIMARY KEY, otp TEXT NOT NULL);
		INSERT INTO email_verifications (email, otp) VALUES ('a@example.com', '123456');
	`)
	require.NoError(t, err)
	return db
}

func tableCount(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

// consumeCode creates the user and drops the verification in one unit.
func consumeCode(failAfterInsert error) func(ctx context.Context, tx DBTX) error {
	return func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (username) VALUES ('a@example.com')`); err != nil {
			return err
		}
		if failAfterInsert != nil {
			return failAfterInsert
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM email_verifications WHERE email = 'a@example.com'`)
		return err
	}
}

func TestWithTx_CommitsBothSteps(t *testing.T) {
	db := openRegistrationDB(t)

	require.NoError(t, WithTx(context.Background(), db, nil, consumeCode(nil)))

	assert.Equal(t, 1, tableCount(t, db, "users"))
	assert.Equal(t, 0, tableCount(t, db, "email_verifications"))
}

func TestWithTx_ErrorLeavesNothingBehind(t *testing.T) {
	db := openRegistrationDB(t)
	boom := errors.New("mail relay down")

	err := WithTx(context.Background(), db, nil, consumeCode(boom))
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 0, tableCount(t, db, "users"), "user insert must be rolled back")
	assert.Equal(t, 1, tableCount(t, db, "email_verifications"), "code must survive a failed verification")
}

func TestWithTx_PanicRollsBackAndPropagates(t *testing.T) {
	db := openRegistrationDB(t)

	assert.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO users (username) VALUES ('p@example.com')`)
			require.NoError(t, err)
			panic("kaput")
		})
	})
	assert.Equal(t, 0, tableCount(t, db, "users"))
}

func TestWithTx_StatementErrorRollsBack(t *testing.T) {
	db := openRegistrationDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (username) VALUES ('x@example.com'), ('x@example.com')`)
		return err
	})
	assert.Error(t, err)
	assert.Equal(t, 0, tableCount(t, db, "users"))
}

func TestWithTx_BeginFailsOnClosedDB(t *testing.T) {
	db := openRegistrationDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "tasks_user_id_fkey"}

	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("db error: %w", dup)))
	assert.False(t, IsUniqueViolation(fk))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key value violates unique constraint")))
	assert.False(t, IsUniqueViolation(nil))
}
