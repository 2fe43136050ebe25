package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskflow/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, t *models.NewTask) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Task, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Task, error)
	Update(ctx context.Context, t *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}
