package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX and runs units of
// work atomically.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users(db dbx.DBTX) users.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	// DB is the non-transactional handle; nil for the in-memory manager.
	DB() dbx.DBTX
	WithTx(ctx context.Context, fn dbx.TxFunc) error
	Close() error
}

var (
	_ RepositoryManager = (*PostgresRepositoryManager)(nil)
	_ RepositoryManager = (*MemoryRepositoryManager)(nil)
)

// Open returns the Postgres manager when dsn is set, the in-memory one otherwise.
func Open(dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewMemoryRepositoryManager(), nil
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgresRepositoryManager(db)
}
