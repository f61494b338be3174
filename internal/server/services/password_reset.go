package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

const resetTokenBytes = 32

// RequestPasswordReset mails a single-use reset link to the owner of email.
// Unknown emails succeed without side effects so that callers cannot probe
// which addresses are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (err error) {
	defer func() { s.observe("request_password_reset", err) }()

	user, err := s.users(s.repomanager.DB()).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Debug(ctx, "password reset for unknown email")
			return nil
		}
		return s.internal(ctx, "find user", err)
	}

	token, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return s.internal(ctx, "generate reset token", err)
	}

	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: cryptox.HashToken(token),
		ExpiresAt: s.now().Add(s.resetValidity),
	}
	if err := s.repomanager.ResetTokens(s.repomanager.DB()).Create(ctx, reset); err != nil {
		return s.internal(ctx, "store reset token", err)
	}

	msg := s.templates.PasswordReset(token)
	if err := s.notifier.Send(ctx, user.Email, msg.Subject, msg.Body); err != nil {
		s.log.Warn(ctx, "password reset email not delivered", "user_id", user.ID, "error", err)
	}

	s.log.Info(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword redeems a reset token and sets a new password. The token is
// consumed before anything else happens, so it never works twice; the
// user's other pending resets are dropped with the password change.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { s.observe("reset_password", err) }()

	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if token == "" {
		return common.ErrInvalidCode
	}

	reset, err := s.repomanager.ResetTokens(s.repomanager.DB()).Consume(ctx, cryptox.HashToken(token))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidCode
		}
		return s.internal(ctx, "consume reset token", err)
	}
	if reset.Expired(s.now()) {
		return common.ErrTokenExpired
	}

	err = s.setPassword(ctx, reset.UserID, newPassword, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.ResetTokens(tx).DeleteByUser(ctx, reset.UserID)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidCode
		}
		return err
	}

	s.log.Info(ctx, "password reset", "user_id", reset.UserID)
	return nil
}
