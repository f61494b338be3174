package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/client/session"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	token string
	calls []string
	args  map[string][]any
	err   error

	loginResp *api.LoginResponse
	me        *api.UserInfo
}

func (f *fakeClient) record(name string, args ...any) {
	f.calls = append(f.calls, name)
	if f.args == nil {
		f.args = map[string][]any{}
	}
	f.args[name] = args
}

func (f *fakeClient) Register(_ context.Context, userName, email, password string) (*api.RegisterResponse, error) {
	f.record("Register", userName, email, password)
	if f.err != nil {
		return nil, f.err
	}
	return &api.RegisterResponse{User: api.UserInfo{ID: 1, Username: userName, Email: email}, Message: "check your email"}, nil
}

func (f *fakeClient) Login(_ context.Context, identifier, password string) (*api.LoginResponse, error) {
	f.record("Login", identifier, password)
	if f.err != nil {
		return nil, f.err
	}
	f.token = f.loginResp.Token
	return f.loginResp, nil
}

func (f *fakeClient) ConfirmEmail(_ context.Context, code string) (string, error) {
	f.record("ConfirmEmail", code)
	return "confirmed", f.err
}

func (f *fakeClient) ResendConfirmation(_ context.Context, email string) (string, error) {
	f.record("ResendConfirmation", email)
	return "sent", f.err
}

func (f *fakeClient) ChangePassword(_ context.Context, newPassword string) (string, error) {
	f.record("ChangePassword", newPassword)
	return "changed", f.err
}

func (f *fakeClient) Me(context.Context) (*api.UserInfo, error) {
	f.record("Me")
	if f.err != nil {
		return nil, f.err
	}
	return f.me, nil
}

func (f *fakeClient) AssignRole(_ context.Context, userID int64, role string) (string, error) {
	f.record("AssignRole", userID, role)
	return "Role assigned", f.err
}

func (f *fakeClient) RequestPasswordReset(_ context.Context, email string) (string, error) {
	f.record("RequestPasswordReset", email)
	return "reset sent", f.err
}

func (f *fakeClient) ResetPassword(_ context.Context, token, newPassword string) (string, error) {
	f.record("ResetPassword", token, newPassword)
	return "reset done", f.err
}

func (f *fakeClient) Ping(context.Context) error {
	f.record("Ping")
	return f.err
}

func (f *fakeClient) AccessToken() string         { return f.token }
func (f *fakeClient) SetAccessToken(token string) { f.token = token }
func (f *fakeClient) Close() error                { return nil }

func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(pws) == 0 {
			return nil, errors.New("no more passwords")
		}
		pw := pws[0]
		pws = pws[1:]
		return []byte(pw), nil
	}
}

func newTestApp(t *testing.T, f *fakeClient, input string) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		SessionFile:    filepath.Join(t.TempDir(), "authkeeper", "session.db"),
		RequestTimeout: time.Second,
	}
	store, err := session.Open(context.Background(), cfg.SessionFile)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var out bytes.Buffer
	return NewApp(cfg, f, store, strings.NewReader(input), &out), &out
}

func storedToken(t *testing.T, a *App) string {
	t.Helper()
	token, err := a.session.Token(context.Background())
	require.NoError(t, err)
	return token
}

func login(t *testing.T, a *App, token string) {
	t.Helper()
	require.NoError(t, a.session.Save(context.Background(), token, "alice"))
}

func TestRun_NoCommandPrintsUsage(t *testing.T) {
	a, out := newTestApp(t, &fakeClient{}, "")

	err := a.Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out.String(), "reset-request")
}

func TestRun_UnknownCommand(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{}, "")

	err := a.Run(context.Background(), []string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestRegister_PromptsForMissingFields(t *testing.T) {
	f := &fakeClient{}
	a, out := newTestApp(t, f, "alice\nalice@example.com\n")
	stubPasswords(t, "s3cretpw", "s3cretpw")

	require.NoError(t, a.Run(context.Background(), []string{"register"}))
	assert.Equal(t, []any{"alice", "alice@example.com", "s3cretpw"}, f.args["Register"])
	assert.Contains(t, out.String(), "check your email")
}

func TestRegister_FlagsAndMismatch(t *testing.T) {
	f := &fakeClient{}
	a, _ := newTestApp(t, f, "")
	stubPasswords(t, "one-password", "another-one")

	err := a.Run(context.Background(), []string{"register", "-u", "bob", "-e", "bob@example.com"})
	require.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Empty(t, f.calls)
}

func TestLogin_StoresToken(t *testing.T) {
	f := &fakeClient{loginResp: &api.LoginResponse{Token: "tok-123", Username: "alice", ExpiresAt: time.Now().Add(time.Hour)}}
	a, out := newTestApp(t, f, "")
	stubPasswords(t, "s3cretpw")

	require.NoError(t, a.Run(context.Background(), []string{"login", "-u", "alice"}))
	assert.Equal(t, []any{"alice", "s3cretpw"}, f.args["Login"])
	assert.Contains(t, out.String(), "Logged in as alice")
	assert.Contains(t, out.String(), "not confirmed")

	assert.Equal(t, "tok-123", storedToken(t, a))
}

func TestLogin_FailureKeepsNoToken(t *testing.T) {
	f := &fakeClient{err: common.ErrInvalidCredentials}
	a, _ := newTestApp(t, f, "alice\n")
	stubPasswords(t, "wrong")

	err := a.Run(context.Background(), []string{"login"})
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	assert.Empty(t, storedToken(t, a))
}

func TestMe_RequiresSession(t *testing.T) {
	f := &fakeClient{}
	a, _ := newTestApp(t, f, "")

	err := a.Run(context.Background(), []string{"me"})
	require.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Empty(t, f.calls)
}

func TestMe_UsesStoredToken(t *testing.T) {
	f := &fakeClient{me: &api.UserInfo{ID: 3, Username: "alice", Email: "alice@example.com", EmailConfirmed: true, Roles: []string{"ROLE_USER"}}}
	a, out := newTestApp(t, f, "")
	login(t, a, "stored-token")

	require.NoError(t, a.Run(context.Background(), []string{"me"}))
	assert.Equal(t, "stored-token", f.token)
	assert.Contains(t, out.String(), "alice@example.com")
	assert.Contains(t, out.String(), "ROLE_USER")
}

func TestExpiredSessionRemovesToken(t *testing.T) {
	f := &fakeClient{err: common.ErrTokenExpired}
	a, _ := newTestApp(t, f, "")
	login(t, a, "old-token")

	err := a.Run(context.Background(), []string{"me"})
	require.ErrorIs(t, err, common.ErrTokenExpired)

	assert.Empty(t, storedToken(t, a))
}

func TestLogout(t *testing.T) {
	f := &fakeClient{}
	a, out := newTestApp(t, f, "")
	login(t, a, "tok")

	require.NoError(t, a.Run(context.Background(), []string{"logout"}))
	assert.Contains(t, out.String(), "Logged out alice")
	assert.Empty(t, f.token)
	assert.Empty(t, storedToken(t, a))

	require.NoError(t, a.Run(context.Background(), []string{"logout"}))
}

func TestConfirmAndResend(t *testing.T) {
	f := &fakeClient{}
	a, out := newTestApp(t, f, "")

	require.NoError(t, a.Run(context.Background(), []string{"confirm", "abc-123"}))
	assert.Equal(t, []any{"abc-123"}, f.args["ConfirmEmail"])

	require.NoError(t, a.Run(context.Background(), []string{"confirm", "-code", "xyz"}))
	assert.Equal(t, []any{"xyz"}, f.args["ConfirmEmail"])

	require.NoError(t, a.Run(context.Background(), []string{"resend", "-e", "alice@example.com"}))
	assert.Equal(t, []any{"alice@example.com"}, f.args["ResendConfirmation"])
	assert.Contains(t, out.String(), "confirmed")
}

func TestChangePassword(t *testing.T) {
	f := &fakeClient{}
	a, _ := newTestApp(t, f, "")

	stubPasswords(t, "n3wpassword", "n3wpassword")
	require.ErrorIs(t, a.Run(context.Background(), []string{"passwd"}), ErrNotLoggedIn)

	login(t, a, "tok")
	require.NoError(t, a.Run(context.Background(), []string{"passwd"}))
	assert.Equal(t, []any{"n3wpassword"}, f.args["ChangePassword"])
}

func TestPasswordResetFlow(t *testing.T) {
	f := &fakeClient{}
	a, _ := newTestApp(t, f, "bob@example.com\n")
	stubPasswords(t, "resetpw1", "resetpw1")

	require.NoError(t, a.Run(context.Background(), []string{"reset-request"}))
	assert.Equal(t, []any{"bob@example.com"}, f.args["RequestPasswordReset"])

	require.NoError(t, a.Run(context.Background(), []string{"reset", "-token", "deadbeef"}))
	assert.Equal(t, []any{"deadbeef", "resetpw1"}, f.args["ResetPassword"])
}

func TestAssignRole(t *testing.T) {
	f := &fakeClient{}
	a, _ := newTestApp(t, f, "")

	require.ErrorIs(t, a.Run(context.Background(), []string{"assign-role", "-id", "2"}), ErrUsage)

	login(t, a, "admin-token")
	require.NoError(t, a.Run(context.Background(), []string{"assign-role", "-id", "2", "-role", "ROLE_ADMIN"}))
	assert.Equal(t, []any{int64(2), "ROLE_ADMIN"}, f.args["AssignRole"])
}

func TestPing(t *testing.T) {
	f := &fakeClient{}
	a, out := newTestApp(t, f, "")

	require.NoError(t, a.Run(context.Background(), []string{"ping"}))
	assert.Equal(t, "OK\n", out.String())
}
