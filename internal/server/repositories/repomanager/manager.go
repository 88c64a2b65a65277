// Package repomanager vends repository implementations bound to a DBTX,
// so services can run several repository calls inside one transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/agropath/farmauth/internal/dbx"
	"github.com/agropath/farmauth/internal/server/repositories/refreshtokens"
	"github.com/agropath/farmauth/internal/server/repositories/users"
)

// RepositoryManager builds repositories over the given DBTX (either the
// shared *sql.DB or an open *sql.Tx) and runs schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
