// Package services contains server-side business logic: the account
// lifecycle (register, confirm, login, password change and reset) and the
// confirmation code manager it relies on.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/notify"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token          string
	Type           string
	ExpiresAt      time.Time
	ID             int64
	UserName       string
	Email          string
	EmailConfirmed bool
	Roles          []string
}

// AuthService drives an identity through
// Unregistered -> PendingConfirmation -> Confirmed and issues session tokens.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.PasswordHasher
	tokens      *auth.TokenService
	confirm     *ConfirmationService
	notifier    notify.Notifier
	templates   notify.Templates
	log         logging.Logger
	metrics     Metrics
	now         func() time.Time

	requireConfirmedEmail bool
	resetValidity         time.Duration

	// dummyHash is verified against for unknown identities.
	dummyHash string
}

// Option customizes an AuthService.
type Option func(*AuthService)

// WithMetrics reports every operation outcome to m.
func WithMetrics(m Metrics) Option {
	return func(s *AuthService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithCodeGenerator replaces the random confirmation code generator.
func WithCodeGenerator(fn func() (string, error)) Option {
	return func(s *AuthService) { s.confirm.newCode = fn }
}

// NewAuthService wires the orchestrator from its collaborators and server
// config. It hashes a throwaway password up front and fails if that does.
func NewAuthService(
	m repomanager.RepositoryManager,
	cfg *config.Config,
	hasher *cryptox.PasswordHasher,
	tokens *auth.TokenService,
	notifier notify.Notifier,
	log logging.Logger,
	opts ...Option,
) (*AuthService, error) {
	if hasher == nil {
		return nil, errors.New("auth service: password hasher is required")
	}

	templates := notify.Templates{
		ServiceName:      cfg.ServiceName,
		ConfirmationURL:  cfg.ConfirmationURL,
		PasswordResetURL: cfg.PasswordResetURL,
	}
	s := &AuthService{
		repomanager:           m,
		hasher:                hasher,
		tokens:                tokens,
		confirm:               NewConfirmationService(m, notifier, templates, log),
		notifier:              notifier,
		templates:             templates,
		log:                   log.With("module", "auth"),
		metrics:               nopMetrics{},
		now:                   time.Now,
		requireConfirmedEmail: cfg.RequireConfirmedEmail,
		resetValidity:         cfg.PasswordResetValidityDuration,
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := hasher.Hash(context.Background(), "not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("auth service: dummy hash: %w", err)
	}
	s.dummyHash = dummy

	return s, nil
}

// Confirmations exposes the confirmation code manager.
func (s *AuthService) Confirmations() *ConfirmationService { return s.confirm }

func (s *AuthService) users(db dbx.DBTX) usersrepo.Repository {
	return s.repomanager.Users(db)
}

func (s *AuthService) observe(op string, err error) {
	s.metrics.ObserveOperation(op, Outcome(err))
}

// internal logs cause and hides it from the caller.
func (s *AuthService) internal(ctx context.Context, what string, cause error) error {
	s.log.Error(ctx, what, "error", cause)
	return common.ErrorInternal
}

// Register creates a pending identity with the default role and mails its
// confirmation code. The returned user carries no secrets.
func (s *AuthService) Register(ctx context.Context, userName, email, password string) (_ *models.User, err error) {
	defer func() { s.observe("register", err) }()

	if err := validateRegistration(userName, email, password); err != nil {
		return nil, err
	}
	email = models.NormalizeEmail(email)

	repo := s.users(s.repomanager.DB())
	if taken, err := repo.ExistsByUsername(ctx, userName); err != nil {
		return nil, s.internal(ctx, "check username", err)
	} else if taken {
		return nil, common.ErrDuplicateUsername
	}
	if taken, err := repo.ExistsByEmail(ctx, email); err != nil {
		return nil, s.internal(ctx, "check email", err)
	} else if taken {
		return nil, common.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}
	code, err := s.confirm.NewCode()
	if err != nil {
		return nil, s.internal(ctx, "generate confirmation code", err)
	}

	user := &models.User{
		UserName:         userName,
		Email:            email,
		PasswordHash:     hash,
		Roles:            []models.Role{models.DefaultRole},
		ConfirmationCode: code,
	}

	// The unique constraints decide races the pre-checks above cannot see.
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.users(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) || errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, s.internal(ctx, "create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "username", user.UserName)
	s.confirm.Send(ctx, user)

	return user.Public(), nil
}

// Login checks credentials and issues a session token. An identifier with
// '@' is looked up as an email, anything else as a username. Unknown
// identities and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (_ *LoginResult, err error) {
	defer func() { s.observe("login", err) }()

	identifier = strings.TrimSpace(identifier)
	repo := s.users(s.repomanager.DB())

	var user *models.User
	if strings.Contains(identifier, "@") {
		user, err = repo.FindByEmail(ctx, identifier)
	} else {
		user, err = repo.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, s.internal(ctx, "find user", err)
		}
		s.hasher.Verify(ctx, password, s.dummyHash)
		return nil, rejected(ctx)
	}

	if !s.hasher.Verify(ctx, password, user.PasswordHash) {
		return nil, rejected(ctx)
	}

	if s.requireConfirmedEmail && !user.EmailConfirmed {
		return nil, common.ErrEmailNotConfirmed
	}

	now := s.now()
	token, err := s.tokens.Issue(user, now)
	if err != nil {
		return nil, s.internal(ctx, "issue token", err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)

	return &LoginResult{
		Token:          token,
		Type:           common.TokenType,
		ExpiresAt:      s.tokens.ExpiresAt(now),
		ID:             user.ID,
		UserName:       user.UserName,
		Email:          user.Email,
		EmailConfirmed: user.EmailConfirmed,
		Roles:          user.RoleNames(),
	}, nil
}

// rejected is the single failure result of a login attempt. A cancelled
// context wins over the credentials verdict on both paths.
func rejected(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return common.ErrInvalidCredentials
}

// ConfirmEmail redeems a confirmation code.
func (s *AuthService) ConfirmEmail(ctx context.Context, code string) (err error) {
	defer func() { s.observe("confirm_email", err) }()

	_, err = s.confirm.Consume(ctx, code)
	return err
}

// ResendConfirmation mails a fresh code to the unconfirmed owner of email.
func (s *AuthService) ResendConfirmation(ctx context.Context, email string) (err error) {
	defer func() { s.observe("resend_confirmation", err) }()

	user, err := s.users(s.repomanager.DB()).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return s.internal(ctx, "find user", err)
	}

	_, err = s.confirm.Resend(ctx, user)
	return err
}

// ChangePassword re-hashes the password of the identity named by claims.
func (s *AuthService) ChangePassword(ctx context.Context, claims *auth.Claims, newPassword string) (err error) {
	defer func() { s.observe("change_password", err) }()

	if claims == nil {
		return common.ErrForbidden
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	if err := s.setPassword(ctx, claims.UserID, newPassword, nil); err != nil {
		return err
	}

	s.log.Info(ctx, "password changed", "user_id", claims.UserID)
	return nil
}

// VerifyToken checks a session token against the current clock.
func (s *AuthService) VerifyToken(token string) (*auth.Claims, error) {
	return s.tokens.Verify(token, s.now())
}

// Me returns the public view of the identity named by claims.
func (s *AuthService) Me(ctx context.Context, claims *auth.Claims) (_ *models.User, err error) {
	defer func() { s.observe("me", err) }()

	if claims == nil {
		return nil, common.ErrForbidden
	}
	user, err := s.findByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// AssignRole grants role to userID. Only administrators may call it;
// granting a role the user already has is a no-op.
func (s *AuthService) AssignRole(ctx context.Context, claims *auth.Claims, userID int64, role string) (err error) {
	defer func() { s.observe("assign_role", err) }()

	if err := auth.RequireRole(claims, models.RoleAdmin); err != nil {
		return err
	}
	r, ok := models.ParseRole(role)
	if !ok {
		return wrapValidation(errors.New("role: unknown role " + role))
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.users(tx).AddRole(ctx, userID, r)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return s.internal(ctx, "add role", err)
	}

	s.log.Info(ctx, "role assigned", "user_id", userID, "role", r, "by", claims.UserID)
	return nil
}

func (s *AuthService) findByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users(s.repomanager.DB()).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, s.internal(ctx, "find user", err)
	}
	return user, nil
}

// setPassword stores a fresh hash of password for userID. extra, if set, runs
// in the same transaction after the update. Only the hash column is written.
func (s *AuthService) setPassword(ctx context.Context, userID int64, password string, extra dbx.TxFunc) error {
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return s.internal(ctx, "hash password", err)
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.users(tx).UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		if extra != nil {
			return extra(ctx, tx)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return s.internal(ctx, "update password", err)
	}
	return nil
}
