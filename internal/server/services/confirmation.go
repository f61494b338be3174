package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/notify"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ConfirmationService owns the confirmation code lifecycle: issuing a code,
// redeeming it once, and re-sending it while the email is unconfirmed.
type ConfirmationService struct {
	repomanager repomanager.RepositoryManager
	notifier    notify.Notifier
	templates   notify.Templates
	log         logging.Logger
	newCode     func() (string, error)
}

func NewConfirmationService(m repomanager.RepositoryManager, n notify.Notifier, t notify.Templates, log logging.Logger) *ConfirmationService {
	return &ConfirmationService{
		repomanager: m,
		notifier:    n,
		templates:   t,
		log:         log.With("module", "confirmation"),
		newCode:     newUUIDCode,
	}
}

func newUUIDCode() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewCode returns a fresh random confirmation code.
func (s *ConfirmationService) NewCode() (string, error) {
	return s.newCode()
}

// Issue replaces any live code of user with a new one and returns it.
// Confirmed users yield common.ErrAlreadyConfirmed and keep their state.
func (s *ConfirmationService) Issue(ctx context.Context, user *models.User) (string, error) {
	code, err := s.newCode()
	if err != nil {
		s.log.Error(ctx, "generate confirmation code", "error", err)
		return "", common.ErrorInternal
	}

	err = s.repomanager.Users(s.repomanager.DB()).ReplaceConfirmationCode(ctx, user.ID, code)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrAlreadyConfirmed), errors.Is(err, common.ErrNotFound):
		return "", err
	default:
		s.log.Error(ctx, "replace confirmation code", "user_id", user.ID, "error", err)
		return "", common.ErrorInternal
	}

	user.ConfirmationCode = code
	return code, nil
}

// Consume redeems code and returns the now confirmed user. Unknown, empty
// or already redeemed codes yield common.ErrInvalidCode.
func (s *ConfirmationService) Consume(ctx context.Context, code string) (*models.User, error) {
	if code == "" {
		return nil, common.ErrInvalidCode
	}

	user, err := s.repomanager.Users(s.repomanager.DB()).ConsumeConfirmationCode(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCode
		}
		s.log.Error(ctx, "consume confirmation code", "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "email confirmed", "user_id", user.ID)
	return user, nil
}

// Resend issues a new code for an unconfirmed user and mails it.
func (s *ConfirmationService) Resend(ctx context.Context, user *models.User) (string, error) {
	if user.EmailConfirmed {
		return "", common.ErrAlreadyConfirmed
	}

	code, err := s.Issue(ctx, user)
	if err != nil {
		return "", err
	}

	s.Send(ctx, user)
	return code, nil
}

// Send mails the user's current code. Delivery failures are logged only.
func (s *ConfirmationService) Send(ctx context.Context, user *models.User) {
	msg := s.templates.Confirmation(user.ConfirmationCode)
	if err := s.notifier.Send(ctx, user.Email, msg.Subject, msg.Body); err != nil {
		s.log.Warn(ctx, "confirmation email not delivered", "user_id", user.ID, "error", err)
	}
}
