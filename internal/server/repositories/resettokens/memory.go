package resettokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// MemoryRepository is the in-process counterpart of PostgresRepository.
type MemoryRepository struct {
	mu     sync.Mutex
	byHash map[string]models.PasswordReset
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byHash: make(map[string]models.PasswordReset),
		now:    time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, reset *models.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset.CreatedAt = r.now()
	r.byHash[reset.TokenHash] = *reset
	return nil
}

func (r *MemoryRepository) Consume(_ context.Context, tokenHash string) (*models.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset, ok := r.byHash[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.byHash, tokenHash)
	return &reset, nil
}

func (r *MemoryRepository) DeleteByUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for hash, reset := range r.byHash {
		if reset.UserID == userID {
			delete(r.byHash, hash)
		}
	}
	return nil
}
