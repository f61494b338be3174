// Package session keeps the CLI's login state in a local SQLite database.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/client/session/migrations"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyAccessToken = "access_token"
	keyUserName    = "username"
)

// Store is a key/value view of the session table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the session database at path and
// migrates it. The parent directory is created owner-only.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := filex.EnsureParentDir(path, 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// RunMigrations applies the embedded schema to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func get(ctx context.Context, db dbx.DBTX, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO session (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set session[%s]: %w", key, err)
	}
	return nil
}

// Token returns the stored access token, or "" when logged out.
func (s *Store) Token(ctx context.Context) (string, error) {
	return get(ctx, s.db, keyAccessToken)
}

// UserName returns the name the stored token was issued to.
func (s *Store) UserName(ctx context.Context) (string, error) {
	return get(ctx, s.db, keyUserName)
}

// Save records a fresh login.
func (s *Store) Save(ctx context.Context, token, userName string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, keyAccessToken, token); err != nil {
			return err
		}
		return set(ctx, tx, keyUserName, userName)
	})
}

// Clear forgets the session. Clearing an empty session is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
