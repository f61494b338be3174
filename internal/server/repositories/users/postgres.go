package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
)

const selectUser = `SELECT u.id, u.username, u.email, u.password_hash, u.email_confirmed,
       u.confirmation_code, u.created_at, COALESCE(string_agg(r.role, ',' ORDER BY r.role), '')
  FROM users u
  LEFT JOIN user_roles r ON r.user_id = u.id
 WHERE `

const groupByUser = `
 GROUP BY u.id`

// PostgresRepository stores identities in the users and user_roles tables.
// Create and Save issue more than one statement and are expected to run
// inside dbx.WithTx.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, "u.id = $1", id)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, userName string) (*models.User, error) {
	return r.findOne(ctx, "u.username = $1", userName)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "u.email = $1", models.NormalizeEmail(email))
}

func (r *PostgresRepository) FindByConfirmationCode(ctx context.Context, code string) (*models.User, error) {
	return r.findOne(ctx, "u.confirmation_code = $1", code)
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	var (
		user  models.User
		code  sql.NullString
		roles string
	)

	err := r.db.QueryRowContext(ctx, selectUser+where+groupByUser, arg).Scan(
		&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &user.EmailConfirmed,
		&code, &user.CreatedAt, &roles)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ConfirmationCode = code.String
	user.Roles = parseRoles(roles)

	return &user, nil
}

func parseRoles(s string) []models.Role {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	roles := make([]models.Role, 0, len(parts))
	for _, p := range parts {
		roles = append(roles, models.Role(p))
	}
	return roles
}

func (r *PostgresRepository) ExistsByUsername(ctx context.Context, userName string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, userName)
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, models.NormalizeEmail(email))
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)

	query :=
		`INSERT INTO users (username, email, password_hash, email_confirmed, confirmation_code)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.PasswordHash, user.EmailConfirmed, nullString(user.ConfirmationCode),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	return r.insertRoles(ctx, user.ID, user.Roles)
}

func (r *PostgresRepository) Save(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)

	query :=
		`UPDATE users
		    SET username = $2, email = $3, password_hash = $4,
		        email_confirmed = $5, confirmation_code = $6
		  WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, user.ID,
		user.UserName, user.Email, user.PasswordHash, user.EmailConfirmed, nullString(user.ConfirmationCode))
	if err != nil {
		return mapWriteError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrNotFound
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, user.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return r.insertRoles(ctx, user.ID, user.Roles)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) AddRole(ctx context.Context, id int64, role models.Role) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role)
		 SELECT id, $2 FROM users WHERE id = $1
		 ON CONFLICT DO NOTHING`, id, string(role))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing inserted: either the role is already held or the user is absent.
	exists, err := r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id)
	if err != nil {
		return err
	}
	if !exists {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) insertRoles(ctx context.Context, userID int64, roles []models.Role) error {
	for _, role := range roles {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, string(role)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) ConsumeConfirmationCode(ctx context.Context, code string) (*models.User, error) {
	query :=
		`UPDATE users SET email_confirmed = TRUE, confirmation_code = NULL
		  WHERE confirmation_code = $1 AND email_confirmed = FALSE
		 RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, code).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.FindByID(ctx, id)
}

func (r *PostgresRepository) ReplaceConfirmationCode(ctx context.Context, id int64, code string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET confirmation_code = $2 WHERE id = $1 AND email_confirmed = FALSE`, id, code)
	if err != nil {
		return mapWriteError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		return nil
	}

	var confirmed bool
	err = r.db.QueryRowContext(ctx, `SELECT email_confirmed FROM users WHERE id = $1`, id).Scan(&confirmed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrNotFound
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	default:
		return common.ErrAlreadyConfirmed
	}
}

func mapWriteError(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		switch constraint {
		case constraintUsername:
			return common.ErrDuplicateUsername
		case constraintEmail:
			return common.ErrDuplicateEmail
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
