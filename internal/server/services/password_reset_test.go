package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.Zero(t, f.notifier.count())
}

func TestResetPassword_Flow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.svc.Register(ctx, "alice", "alice@example.com", "Secret1!")
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "Alice@example.com"))
	msg := f.notifier.last()
	assert.Equal(t, "Password Reset Request", msg.subject)
	token := resetTokenFrom(msg.body)
	require.Len(t, token, 64)

	_, err = f.repos.ResetTokens(nil).Consume(ctx, token)
	assert.ErrorIs(t, err, common.ErrNotFound, "plaintext token must not be stored")

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, token, ""), common.ErrValidation)
	require.NoError(t, f.svc.ResetPassword(ctx, token, "Fresh123!"))
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, token, "Again123!"), common.ErrInvalidCode)

	_, err = f.svc.Login(ctx, "alice", "Secret1!")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "alice", "Fresh123!")
	assert.NoError(t, err)
}

func TestResetPassword_DropsOtherPendingTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.svc.Register(ctx, "alice", "alice@example.com", "Secret1!")
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
	first := resetTokenFrom(f.notifier.last().body)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
	second := resetTokenFrom(f.notifier.last().body)
	require.NotEqual(t, first, second)

	require.NoError(t, f.svc.ResetPassword(ctx, first, "Fresh123!"))

	_, err = f.repos.ResetTokens(nil).Consume(ctx, cryptox.HashToken(second))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestResetPassword_Expired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(c *config.Config) { c.PasswordResetValidityDuration = time.Hour })
	_, err := f.svc.Register(ctx, "alice", "alice@example.com", "Secret1!")
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
	token := resetTokenFrom(f.notifier.last().body)

	f.clock.advance(time.Hour)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, token, "Fresh123!"), common.ErrTokenExpired)

	_, err = f.svc.Login(ctx, "alice", "Secret1!")
	assert.NoError(t, err)
}

func TestResetPassword_UnknownToken(t *testing.T) {
	f := newFixture(t, nil)

	assert.ErrorIs(t, f.svc.ResetPassword(context.Background(), "deadbeef", "Fresh123!"), common.ErrInvalidCode)
	assert.ErrorIs(t, f.svc.ResetPassword(context.Background(), "", "Fresh123!"), common.ErrInvalidCode)
}

func TestRequestPasswordReset_NotifierFailureStillStoresToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.svc.Register(ctx, "alice", "alice@example.com", "Secret1!")
	require.NoError(t, err)

	f.notifier.err = errors.New("smtp down")
	assert.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
}
