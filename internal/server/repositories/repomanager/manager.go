package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/kidsbank/internal/dbx"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/changes"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/clients"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Clients(db dbx.DBTX) clients.Repository
	Changes(db dbx.DBTX) changes.Repository
}
