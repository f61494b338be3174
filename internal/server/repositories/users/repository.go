// Package users declares the credential store contract and its PostgreSQL
// and in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the durable home of identities. Lookups of absent identities
// return common.ErrNotFound. Emails are normalised with models.NormalizeEmail
// before every write and lookup.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, userName string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByConfirmationCode(ctx context.Context, code string) (*models.User, error)

	ExistsByUsername(ctx context.Context, userName string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create stores a new identity and assigns its ID and CreatedAt.
	// Unique violations surface as common.ErrDuplicateUsername or
	// common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) error

	// Save overwrites every mutable field of an existing identity, roles included.
	Save(ctx context.Context, user *models.User) error

	// UpdatePasswordHash replaces the password hash of id and nothing else.
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error

	// AddRole grants role to id. Granting a role the identity already holds
	// is a no-op.
	AddRole(ctx context.Context, id int64, role models.Role) error

	// ConsumeConfirmationCode marks the owner of code as confirmed and clears
	// the code in one step. Unknown or already used codes yield common.ErrNotFound.
	ConsumeConfirmationCode(ctx context.Context, code string) (*models.User, error)

	// ReplaceConfirmationCode sets a new code for an unconfirmed identity.
	// Confirmed identities are left untouched and yield common.ErrAlreadyConfirmed.
	ReplaceConfirmationCode(ctx context.Context, id int64, code string) error
}
