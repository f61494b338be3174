package repomanager

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out one shared set of in-memory
// repositories regardless of the DBTX passed in. Each repository operation
// is atomic on its own; WithTx provides no rollback.
type MemoryRepositoryManager struct {
	users       *users.MemoryRepository
	resetTokens *resettokens.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:       users.NewMemoryRepository(),
		resetTokens: resettokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) ResetTokens(dbx.DBTX) resettokens.Repository {
	return m.resetTokens
}

func (m *MemoryRepositoryManager) DB() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
