package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/users"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/verifications"
)

// RepositoryManager vends repositories bound to either the pool or an
// open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Verifications(db dbx.DBTX) verifications.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
