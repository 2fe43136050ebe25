package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/repomanager"
)

// Access is the outcome of an ownership check.
type Access int

const (
	AccessAllowed Access = iota
	AccessNotFound
	AccessForbidden
)

// authorize decides whether callerID may touch task. A nil task means the
// lookup found nothing. Existence is checked before ownership.
func authorize(callerID string, task *models.Task) Access {
	if task == nil {
		return AccessNotFound
	}
	if task.UserID != callerID {
		return AccessForbidden
	}
	return AccessAllowed
}

func (a Access) err() error {
	switch a {
	case AccessNotFound:
		return common.ErrorNotFound
	case AccessForbidden:
		return common.ErrorForbidden
	}
	return nil
}

// TaskService implements ownership-scoped task CRUD.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *TaskService {
	return &TaskService{db: db, repomanager: m, logger: logger.With("module", "tasks")}
}

// List returns the caller's tasks, newest first.
func (s *TaskService) List(ctx context.Context, userID string) ([]*models.Task, error) {
	tasks, err := s.repomanager.Tasks(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	task, err := lookup(ctx, s.repomanager.Tasks(s.db).GetByID, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(userID, task).err(); err != nil {
		return nil, err
	}
	return task, nil
}

// Create stores a new task owned by userID, applying the medium/todo defaults.
func (s *TaskService) Create(ctx context.Context, userID string, nt *models.NewTask) (*models.Task, error) {
	if nt.Priority == "" {
		nt.Priority = models.PriorityMedium
	}
	if nt.Status == "" {
		nt.Status = models.StatusTodo
	}
	if err := validateTaskFields(&nt.Title, &nt.Priority, &nt.Status); err != nil {
		return nil, err
	}

	task, err := s.repomanager.Tasks(s.db).Create(ctx, userID, nt)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	s.logger.Debug(ctx, "task created", "task_id", task.ID, "user_id", userID)
	return task, nil
}

// Update applies patch to the caller's task. The row is locked for the
// duration of the read-modify-write. Existence and ownership are checked
// before the patch is validated.
func (s *TaskService) Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error) {
	var updated *models.Task
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		task, err := lookup(ctx, repo.GetByIDForUpdate, id)
		if err != nil {
			return err
		}
		if err := authorize(userID, task).err(); err != nil {
			return err
		}
		if err := validateTaskFields(patch.Title, patch.Priority, patch.Status); err != nil {
			return err
		}

		if patch.Empty() {
			updated = task
			return nil
		}

		patch.Apply(task)
		updated, err = repo.Update(ctx, task)
		if err != nil {
			return fmt.Errorf("error updating task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		task, err := lookup(ctx, repo.GetByIDForUpdate, id)
		if err != nil {
			return err
		}
		if err := authorize(userID, task).err(); err != nil {
			return err
		}

		if err := repo.Delete(ctx, id); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return err
			}
			return fmt.Errorf("error deleting task: %w", err)
		}
		return nil
	})
}

// lookup turns common.ErrorNotFound into a nil task so authorize can decide.
func lookup(ctx context.Context, get func(context.Context, string) (*models.Task, error), id string) (*models.Task, error) {
	task, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading task: %w", err)
	}
	return task, nil
}

// validateTaskFields checks the non-nullable fields that are present.
func validateTaskFields(title *string, priority *models.Priority, status *models.Status) error {
	if title != nil && strings.TrimSpace(*title) == "" {
		return common.NewValidationError("title", "Title is required")
	}
	if priority != nil && !priority.Valid() {
		return common.NewValidationError("priority", "Priority must be one of low, medium, high")
	}
	if status != nil && !status.Valid() {
		return common.NewValidationError("status", "Status must be one of todo, in_progress, completed")
	}
	return nil
}
