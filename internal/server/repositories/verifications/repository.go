package verifications

import (
	"context"

	"github.com/dmitrijs2005/taskflow/internal/server/models"
)

type Repository interface {
	// Upsert stores v, replacing any pending code for the same e-mail.
	Upsert(ctx context.Context, v *models.EmailVerification) error
	// FindForUpdate loads the pending code and locks it until the
	// surrounding transaction ends.
	FindForUpdate(ctx context.Context, email string) (*models.EmailVerification, error)
	// RecordFailure bumps the wrong-code counter and returns its new value.
	RecordFailure(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}
