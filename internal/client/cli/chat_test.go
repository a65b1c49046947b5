package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophcoach/internal/client/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_InlineText(t *testing.T) {
	f := &fakeAPI{reply: "What would success look like?"}
	a, out := newTestApp(f, "")

	require.NoError(t, a.Send(context.Background(), "  I want to change jobs "))

	assert.Equal(t, []string{"I want to change jobs"}, f.sent)
	assert.Equal(t, "coach: What would success look like?\n", out.String())
}

func TestSend_PromptsWhenEmpty(t *testing.T) {
	f := &fakeAPI{reply: "ok"}
	a, _ := newTestApp(f, "")
	stubInputs(t, nil, "typed message")

	require.NoError(t, a.Send(context.Background(), ""))
	assert.Equal(t, []string{"typed message"}, f.sent)
}

func TestSend_EmptyPromptSendsNothing(t *testing.T) {
	f := &fakeAPI{}
	a, _ := newTestApp(f, "")
	stubInputs(t, nil, "")

	require.NoError(t, a.Send(context.Background(), ""))
	assert.Empty(t, f.sent)
}

func TestSend_Unauthorized(t *testing.T) {
	f := &fakeAPI{sendErr: errors.Join(client.ErrUnauthorized, &client.APIError{StatusCode: 401, Message: "Unauthorized"})}
	a, _ := newTestApp(f, "")
	a.user = &client.User{Email: "a@b.com"}

	err := a.Send(context.Background(), "hi")
	assert.ErrorIs(t, err, errSessionExpired)
	assert.False(t, a.isLoggedIn())
}

func TestChat_SendsUntilEmptyLine(t *testing.T) {
	f := &fakeAPI{reply: "go on"}
	a, out := newTestApp(f, "first\nsecond\n\nnot sent\n")

	require.NoError(t, a.Chat(context.Background()))

	assert.Equal(t, []string{"first", "second"}, f.sent)
	assert.Contains(t, out.String(), "coach: go on")
}

func TestChat_StopsOnDoneAndEOF(t *testing.T) {
	f := &fakeAPI{reply: "ok"}
	a, _ := newTestApp(f, "one\n/done\ntwo\n")
	require.NoError(t, a.Chat(context.Background()))
	assert.Equal(t, []string{"one"}, f.sent)

	f = &fakeAPI{reply: "ok"}
	a, _ = newTestApp(f, "only")
	require.NoError(t, a.Chat(context.Background()))
	assert.Equal(t, []string{"only"}, f.sent)
}

func TestChat_StopsOnError(t *testing.T) {
	f := &fakeAPI{sendErr: &client.APIError{StatusCode: 502, Message: "The assistant is unavailable"}}
	a, _ := newTestApp(f, "one\ntwo\n")

	err := a.Chat(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"one"}, f.sent)
}
