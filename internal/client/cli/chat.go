package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const chatExitWord = "/done"

// Send delivers one message and prints the coach's reply. With empty text
// the message is read from the prompt.
func (a *App) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		var err error
		text, err = getSimpleText(a.reader, "Your message", a.out)
		if err != nil {
			return err
		}
		if text == "" {
			return nil
		}
	}

	reply, err := a.api.Send(ctx, text)
	if err != nil {
		return a.checkSession(err)
	}
	fmt.Fprintf(a.out, "coach: %s\n", reply)
	return nil
}

// Chat sends every entered line until an empty line, /done or end of input.
func (a *App) Chat(ctx context.Context) error {
	fmt.Fprintf(a.out, "Chat mode: type your messages, empty line or %s to leave\n", chatExitWord)
	for {
		fmt.Fprint(a.out, "you> ")
		line, err := readLine(a.reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if line == "" || line == chatExitWord {
			return nil
		}
		if err := a.Send(ctx, line); err != nil {
			return err
		}
	}
}

// History prints the stored conversation, oldest first.
func (a *App) History(ctx context.Context) error {
	items, err := a.api.History(ctx)
	if err != nil {
		return a.checkSession(err)
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No messages yet")
		return nil
	}
	for _, it := range items {
		who := "you"
		if it.Role == "assistant" {
			who = "coach"
		}
		fmt.Fprintf(a.out, "[%s] %s: %s\n", it.Timestamp.Local().Format(time.DateTime), who, it.Content)
	}
	return nil
}
