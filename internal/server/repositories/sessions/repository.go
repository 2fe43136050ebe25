package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) (*models.Session, error)
	Find(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes every session that expired before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
