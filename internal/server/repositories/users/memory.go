package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// MemoryRepository keeps identities in process memory. A single mutex guards
// all indexes, so uniqueness checks and writes are atomic with respect to
// each other. Users are cloned on the way in and out.
type MemoryRepository struct {
	mu         sync.Mutex
	nextID     int64
	byID       map[int64]*models.User
	byUsername map[string]int64
	byEmail    map[string]int64
	byCode     map[string]int64
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[int64]*models.User),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
		byCode:     make(map[string]int64),
		now:        time.Now,
	}
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id, true)
}

func (r *MemoryRepository) FindByUsername(_ context.Context, userName string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUsername[userName]
	return r.get(id, ok)
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[models.NormalizeEmail(email)]
	return r.get(id, ok)
}

func (r *MemoryRepository) FindByConfirmationCode(_ context.Context, code string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byCode[code]
	return r.get(id, ok && code != "")
}

func (r *MemoryRepository) get(id int64, ok bool) (*models.User, error) {
	if !ok {
		return nil, common.ErrNotFound
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepository) ExistsByUsername(_ context.Context, userName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byUsername[userName]
	return ok, nil
}

func (r *MemoryRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byEmail[models.NormalizeEmail(email)]
	return ok, nil
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = models.NormalizeEmail(user.Email)
	if err := r.checkUnique(0, user); err != nil {
		return err
	}

	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = r.now()
	r.index(user.Clone())

	return nil
}

func (r *MemoryRepository) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[user.ID]
	if !ok {
		return common.ErrNotFound
	}

	user.Email = models.NormalizeEmail(user.Email)
	if err := r.checkUnique(user.ID, user); err != nil {
		return err
	}

	r.unindex(old)
	stored := user.Clone()
	stored.CreatedAt = old.CreatedAt
	r.index(stored)

	return nil
}

func (r *MemoryRepository) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *MemoryRepository) AddRole(_ context.Context, id int64, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
	return nil
}

func (r *MemoryRepository) ConsumeConfirmationCode(_ context.Context, code string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byCode[code]
	if !ok || code == "" {
		return nil, common.ErrNotFound
	}
	u := r.byID[id]
	if u.EmailConfirmed {
		return nil, common.ErrNotFound
	}

	delete(r.byCode, code)
	u.ConfirmationCode = ""
	u.EmailConfirmed = true

	return u.Clone(), nil
}

func (r *MemoryRepository) ReplaceConfirmationCode(_ context.Context, id int64, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	if u.EmailConfirmed {
		return common.ErrAlreadyConfirmed
	}

	if u.ConfirmationCode != "" {
		delete(r.byCode, u.ConfirmationCode)
	}
	u.ConfirmationCode = code
	if code != "" {
		r.byCode[code] = id
	}

	return nil
}

// checkUnique must be called with mu held. self is the ID allowed to already
// own the username or email.
func (r *MemoryRepository) checkUnique(self int64, user *models.User) error {
	if id, ok := r.byUsername[user.UserName]; ok && id != self {
		return common.ErrDuplicateUsername
	}
	if id, ok := r.byEmail[user.Email]; ok && id != self {
		return common.ErrDuplicateEmail
	}
	return nil
}

func (r *MemoryRepository) index(u *models.User) {
	r.byID[u.ID] = u
	r.byUsername[u.UserName] = u.ID
	r.byEmail[u.Email] = u.ID
	if u.ConfirmationCode != "" {
		r.byCode[u.ConfirmationCode] = u.ID
	}
}

func (r *MemoryRepository) unindex(u *models.User) {
	delete(r.byUsername, u.UserName)
	delete(r.byEmail, u.Email)
	if u.ConfirmationCode != "" {
		delete(r.byCode, u.ConfirmationCode)
	}
}
