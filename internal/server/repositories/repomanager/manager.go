package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a connection or a
// transaction, so services can compose several of them inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
}
