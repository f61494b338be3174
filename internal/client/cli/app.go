package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/dmitrijs2005/authkeeper/internal/client/authclient"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

var (
	ErrUsage            = errors.New("usage")
	ErrNotLoggedIn      = errors.New("not logged in, run 'authctl login' first")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// SessionStore keeps the login between invocations.
type SessionStore interface {
	Token(ctx context.Context) (string, error)
	UserName(ctx context.Context) (string, error)
	Save(ctx context.Context, token, userName string) error
	Clear(ctx context.Context) error
}

type App struct {
	config  *config.Config
	client  authclient.Client
	session SessionStore
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config, client authclient.Client, session SessionStore, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: client, session: session, reader: bufio.NewReader(in), out: out}
}

type command struct {
	summary string
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register":      {"create an account", (*App).Register},
	"confirm":       {"confirm an email address", (*App).Confirm},
	"resend":        {"mail a fresh confirmation code", (*App).Resend},
	"login":         {"log in and store the session token", (*App).Login},
	"logout":        {"forget the stored session token", (*App).Logout},
	"me":            {"show the logged in account", (*App).Me},
	"passwd":        {"change your password", (*App).ChangePassword},
	"reset-request": {"mail a password reset link", (*App).RequestReset},
	"reset":         {"set a new password with a reset token", (*App).Reset},
	"assign-role":   {"grant a role to a user", (*App).AssignRole},
	"ping":          {"check server availability", (*App).Ping},
}

// Run executes the subcommand named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		return ErrUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	token, err := a.session.Token(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	a.client.SetAccessToken(token)

	err = cmd.run(a, ctx, args[1:])
	if errors.Is(err, common.ErrTokenExpired) {
		_ = a.session.Clear(ctx)
		return fmt.Errorf("%w, please log in again", err)
	}
	return err
}

func (a *App) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "Usage: authctl [-a addr] [-f session-db] [-c config] <command> [flags]")
	fmt.Fprintln(a.out, "Commands:")
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-14s %s\n", name, commands[name].summary)
	}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// valueOrPrompt returns v, or asks for it when empty.
func (a *App) valueOrPrompt(v, prompt string) (string, error) {
	if v != "" {
		return v, nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}

// newPassword reads a password twice and returns it once both match.
func (a *App) newPassword(prompt string) (string, error) {
	first, err := GetPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(first)

	second, err := GetPassword(a.out, "Repeat password")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(second)

	if string(first) != string(second) {
		return "", ErrPasswordMismatch
	}
	return string(first), nil
}

func (a *App) requireSession() error {
	if a.client.AccessToken() == "" {
		return ErrNotLoggedIn
	}
	return nil
}
