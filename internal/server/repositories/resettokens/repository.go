// Package resettokens stores pending password resets, keyed by the sha256
// of the token that was emailed to the user.
package resettokens

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines operations for issuing and redeeming password resets.
type Repository interface {
	// Create stores a new pending reset.
	Create(ctx context.Context, reset *models.PasswordReset) error

	// Consume removes the reset with tokenHash and returns it. It succeeds at
	// most once per token; unknown tokens yield common.ErrNotFound. Expiry is
	// left to the caller.
	Consume(ctx context.Context, tokenHash string) (*models.PasswordReset, error)

	// DeleteByUser removes every pending reset of userID. Deleting nothing is
	// not an error.
	DeleteByUser(ctx context.Context, userID int64) error
}
