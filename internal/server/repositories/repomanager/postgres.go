// Package repomanager provides RepositoryManager implementations for
// PostgreSQL and process memory, wiring together repository constructors,
// transactions and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (*PostgresRepositoryManager, error) {
	return &PostgresRepositoryManager{db: db}, nil
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// ResetTokens returns a resettokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) ResetTokens(db dbx.DBTX) resettokens.Repository {
	return resettokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) DB() dbx.DBTX { return m.db }

// WithTx runs fn in a read-committed transaction.
func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	return dbx.WithTx(ctx, m.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the manager's database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}
