package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophcoach/internal/client/client"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Whoami(ctx context.Context) error
	Send(ctx context.Context, text string) error
	Chat(ctx context.Context) error
	History(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// The loop exits on end of input, on "exit"/"quit", or when ctx is done.
//
//	Not logged in:
//	  - help           show available commands
//	  - register       create an account (logs in on success)
//	  - login          authenticate
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - send [text]    send one message (prompts when text is omitted)
//	  - chat           send every entered line until an empty line
//	  - history        show the conversation
//	  - whoami         show the current account
//	  - logout         forget the session
//	  - exit | quit    leave the program
//
// Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("coach %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: send [text], chat, history, whoami, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			report(a.Register(ctx))

		case "login":
			report(a.Login(ctx))

		case "send", "s":
			if requireLogin(a) {
				report(a.Send(ctx, rest))
			}

		case "chat":
			if requireLogin(a) {
				report(a.Chat(ctx))
			}

		case "history", "h":
			if requireLogin(a) {
				report(a.History(ctx))
			}

		case "whoami":
			if requireLogin(a) {
				report(a.Whoami(ctx))
			}

		case "logout":
			report(a.Logout(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func requireLogin(a execIface) bool {
	if !a.isLoggedIn() {
		printlnFn("Please register or login first")
		return false
	}
	return true
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", describe(err))
	}
}

// describe turns an error into the text shown to the user, preferring the
// server's own message.
func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, errSessionExpired):
		return errSessionExpired.Error()
	case errors.Is(err, errBadCredentials):
		return errBadCredentials.Error()
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	default:
		return err.Error()
	}
}
