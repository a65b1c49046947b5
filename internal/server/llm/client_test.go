package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophcoach/internal/common"
	"github.com/dmitrijs2005/gophcoach/internal/logging"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, timeout time.Duration) *Client {
	return NewClient(Config{
		APIKey:      "test-key",
		URL:         url,
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   150,
		Timeout:     timeout,
	}, logging.Nop())
}

var turns = []models.Turn{
	{Role: models.RoleSystem, Content: "be brief"},
	{Role: models.RoleUser, Content: "hi"},
}

func TestComplete_Success(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "  Hello!  "}}},
			"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 3},
		})
	}))
	defer server.Close()

	reply, err := newTestClient(server.URL, 5*time.Second).Complete(context.Background(), turns)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 150, got.MaxTokens)
	assert.Equal(t, turns, got.Messages)
}

func TestComplete_NonSuccessStatus(t *testing.T) {
	long := strings.Repeat("é", 2000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(long))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 5*time.Second).Complete(context.Background(), turns)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
	assert.Equal(t, maxErrorBodyRunes, len([]rune(ue.Body)))
	assert.ErrorIs(t, err, common.ErrUpstream)
}

func TestComplete_BrokenSuccessBody(t *testing.T) {
	for name, body := range map[string]string{
		"not json":      "<html>oops</html>",
		"no choices":    `{"choices": []}`,
		"empty content": `{"choices": [{"message": {"content": "   "}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, 5*time.Second).Complete(context.Background(), turns)
			var ue *UpstreamError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, http.StatusOK, ue.StatusCode)
		})
	}
}

func TestComplete_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestClient(server.URL, 50*time.Millisecond).Complete(context.Background(), turns)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, common.ErrUpstream)
}

func TestComplete_CancelledContextIsTransportError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestClient(server.URL, 5*time.Second).Complete(ctx, turns)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestComplete_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url, time.Second).Complete(context.Background(), turns)

	var te *TransportError
	require.ErrorAs(t, err, &te)
}
