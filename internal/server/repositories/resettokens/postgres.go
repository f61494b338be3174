package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// PostgresRepository keeps resets in the password_resets table over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts reset and fills in CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	query := `
		INSERT INTO password_resets (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query, reset.TokenHash, reset.UserID, reset.ExpiresAt).Scan(&reset.CreatedAt); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// Consume deletes and returns the row in a single statement, so concurrent
// callers cannot both redeem the same token.
func (r *PostgresRepository) Consume(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	query := `
		DELETE FROM password_resets
		WHERE token_hash = $1
		RETURNING user_id, expires_at, created_at
	`
	reset := &models.PasswordReset{TokenHash: tokenHash}
	if err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&reset.UserID, &reset.ExpiresAt, &reset.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reset, nil
}

// DeleteByUser removes all pending resets of userID.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) error {
	query := `
		DELETE FROM password_resets
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
