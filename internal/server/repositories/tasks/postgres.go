package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const taskColumns = `id, user_id, title, description, priority, status, due_date, ai_summary, tags, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one row in taskColumns order. Tags arrive as a
// PostgreSQL text array and are decoded through the pgx type map.
func scanTask(row rowScanner, m *pgtype.Map) (*models.Task, error) {
	var (
		t           models.Task
		description sql.NullString
		dueDate     sql.NullTime
		aiSummary   sql.NullString
		priority    string
		status      string
	)

	err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &priority, &status,
		&dueDate, &aiSummary, m.SQLScanner(&t.Tags), &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Priority = models.Priority(priority)
	t.Status = models.Status(status)
	if description.Valid {
		t.Description = &description.String
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if aiSummary.Valid {
		t.AISummary = &aiSummary.String
	}

	return &t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, nt *models.NewTask) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (id, user_id, title, description, priority, status, due_date, tags)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), userID, nt.Title, nt.Description, string(nt.Priority), string(nt.Status), nt.DueDate, nt.Tags)

	t, err := scanTask(row, pgtype.NewMap())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return r.get(ctx, id, false)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Task, error) {
	return r.get(ctx, id, true)
}

func (r *PostgresRepository) get(ctx context.Context, id string, lock bool) (*models.Task, error) {
	// ids that can never match a UUID column are simply absent
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id), pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// ListByUser returns the user's tasks, newest first. The result is never nil.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Task, error) {
	query :=
		`SELECT ` + taskColumns + ` FROM tasks
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	m := pgtype.NewMap()
	result := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows, m)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Update overwrites every mutable column of t. ID, UserID and CreatedAt are
// never changed.
func (r *PostgresRepository) Update(ctx context.Context, t *models.Task) (*models.Task, error) {
	query :=
		`UPDATE tasks SET title = $2, description = $3, priority = $4, status = $5,
		 due_date = $6, ai_summary = $7, tags = $8
		 WHERE id = $1
		 RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		t.ID, t.Title, t.Description, string(t.Priority), string(t.Status), t.DueDate, t.AISummary, t.Tags)

	updated, err := scanTask(row, pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
