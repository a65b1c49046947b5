// Package cli is the interactive terminal front-end: a small REPL for
// registering, logging in and chatting with the coach over the HTTP API.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophcoach/internal/client/client"
	"github.com/dmitrijs2005/gophcoach/internal/client/config"
)

// APIClient is the part of client.HTTPClient the CLI uses.
type APIClient interface {
	Signup(ctx context.Context, email string, password []byte, name string) (*client.User, error)
	Login(ctx context.Context, email string, password []byte) (*client.User, error)
	Me(ctx context.Context) (*client.User, error)
	Send(ctx context.Context, message string) (string, error)
	History(ctx context.Context) ([]client.HistoryItem, error)
	Logout()
}

type App struct {
	config *config.Config
	api    APIClient
	user   *client.User
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    client.NewHTTPClient(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "Welcome to GophCoach CLI, server %s (type 'help' for commands)\n", a.config.ServerURL)
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) getStatus() string {
	if a.user == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.user.Email)
}
