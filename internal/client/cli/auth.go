package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophcoach/internal/client/client"
)

var (
	errSessionExpired = errors.New("session expired, please log in again")
	errBadCredentials = errors.New("invalid email or password")
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for email, name and password and creates an account.
// A successful signup also logs the user in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	user, err := a.api.Signup(ctx, email, password, name)
	if err != nil {
		return err
	}

	a.user = user
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Name)
	return nil
}

// Login prompts for credentials. On failure the previous session, if any,
// is kept.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	user, err := a.api.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return errBadCredentials
		}
		return err
	}

	a.user = user
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
	return nil
}

// Whoami asks the server who the current token belongs to.
func (a *App) Whoami(ctx context.Context) error {
	user, err := a.api.Me(ctx)
	if err != nil {
		return a.checkSession(err)
	}
	fmt.Fprintf(a.out, "%s <%s>\n", user.Name, user.Email)
	return nil
}

func (a *App) Logout(_ context.Context) error {
	a.api.Logout()
	a.user = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// checkSession drops the local session when the server no longer accepts
// the token, e.g. after it expired.
func (a *App) checkSession(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		a.api.Logout()
		a.user = nil
		return fmt.Errorf("%w: %w", errSessionExpired, err)
	}
	return err
}
