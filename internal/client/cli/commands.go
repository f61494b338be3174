package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Register prompts for any missing account fields and a password, then
// creates the account.
func (a *App) Register(ctx context.Context, args []string) error {
	fs := a.flagSet("register")
	userName := fs.String("u", "", "user name")
	email := fs.String("e", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	name, err := a.valueOrPrompt(*userName, "Enter user name")
	if err != nil {
		return err
	}
	mail, err := a.valueOrPrompt(*email, "Enter email")
	if err != nil {
		return err
	}
	password, err := a.newPassword("Enter password")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := a.client.Register(ctx, name, mail, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %d)\n", resp.User.Username, resp.User.ID)
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

// Confirm takes the code as -code or as the first argument.
func (a *App) Confirm(ctx context.Context, args []string) error {
	fs := a.flagSet("confirm")
	code := fs.String("code", "", "confirmation code from the email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" && fs.NArg() > 0 {
		*code = fs.Arg(0)
	}

	value, err := a.valueOrPrompt(*code, "Enter confirmation code")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.ConfirmEmail(ctx, value)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Resend(ctx context.Context, args []string) error {
	fs := a.flagSet("resend")
	email := fs.String("e", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mail, err := a.valueOrPrompt(*email, "Enter email")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.ResendConfirmation(ctx, mail)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Login authenticates with a user name or email and stores the token.
func (a *App) Login(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	identifier := fs.String("u", "", "user name or email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := a.valueOrPrompt(*identifier, "Enter user name or email")
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := a.client.Login(ctx, id, string(password))
	if err != nil {
		return err
	}
	if err := a.session.Save(ctx, resp.Token, resp.Username); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	fmt.Fprintf(a.out, "Logged in as %s, session valid until %s\n", resp.Username, resp.ExpiresAt.Local().Format(time.DateTime))
	if !resp.EmailConfirmed {
		fmt.Fprintln(a.out, "Your email address is not confirmed yet.")
	}
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	name, err := a.session.UserName(ctx)
	if err != nil {
		return err
	}
	if err := a.session.Clear(ctx); err != nil {
		return err
	}
	a.client.SetAccessToken("")

	if name == "" {
		fmt.Fprintln(a.out, "Logged out")
		return nil
	}
	fmt.Fprintf(a.out, "Logged out %s\n", name)
	return nil
}

func (a *App) Me(ctx context.Context, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.client.Me(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "ID:        %d\n", u.ID)
	fmt.Fprintf(a.out, "Username:  %s\n", u.Username)
	fmt.Fprintf(a.out, "Email:     %s\n", u.Email)
	fmt.Fprintf(a.out, "Confirmed: %t\n", u.EmailConfirmed)
	fmt.Fprintf(a.out, "Roles:     %s\n", strings.Join(u.Roles, ", "))
	fmt.Fprintf(a.out, "Created:   %s\n", u.CreatedAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) ChangePassword(ctx context.Context, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	password, err := a.newPassword("Enter new password")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.ChangePassword(ctx, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) RequestReset(ctx context.Context, args []string) error {
	fs := a.flagSet("reset-request")
	email := fs.String("e", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mail, err := a.valueOrPrompt(*email, "Enter email")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.RequestPasswordReset(ctx, mail)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Reset takes the token as -token or as the first argument.
func (a *App) Reset(ctx context.Context, args []string) error {
	fs := a.flagSet("reset")
	token := fs.String("token", "", "reset token from the email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" && fs.NArg() > 0 {
		*token = fs.Arg(0)
	}

	value, err := a.valueOrPrompt(*token, "Enter reset token")
	if err != nil {
		return err
	}
	password, err := a.newPassword("Enter new password")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.ResetPassword(ctx, value, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) AssignRole(ctx context.Context, args []string) error {
	fs := a.flagSet("assign-role")
	userID := fs.Int64("id", 0, "user id")
	role := fs.String("role", "", "role name, e.g. ROLE_ADMIN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID <= 0 || *role == "" {
		fs.Usage()
		return ErrUsage
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.AssignRole(ctx, *userID, *role)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Ping(ctx context.Context, _ []string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}
