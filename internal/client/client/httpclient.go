// Package client is the HTTP client for the coaching server API. It keeps
// the session token of the last successful signup or login and sends it as
// a bearer token on chat calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophcoach/internal/common"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type HistoryItem struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) Signup(ctx context.Context, email string, password []byte, name string) (*User, error) {
	return c.authenticate(ctx, "/auth/signup", map[string]string{
		"email":    email,
		"password": string(password),
		"name":     name,
	})
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*User, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": string(password),
	})
}

func (c *HTTPClient) authenticate(ctx context.Context, path string, body map[string]string) (*User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, false, body, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp.User, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", true, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Send posts one chat message and returns the assistant's reply.
func (c *HTTPClient) Send(ctx context.Context, message string) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat/send", true, map[string]string{"message": message}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (c *HTTPClient) History(ctx context.Context) ([]HistoryItem, error) {
	var resp struct {
		History []HistoryItem `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, "/chat/history", true, nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// Logout forgets the session token. Tokens are stateless on the server, so
// nothing is sent.
func (c *HTTPClient) Logout() {
	c.SetToken("")
}

func (c *HTTPClient) do(ctx context.Context, method, path string, authenticated bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token := c.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) mapError(resp *http.Response) error {
	var e struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: e.Message}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return errors.Join(ErrUnauthorized, apiErr)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return errors.Join(ErrUnavailable, apiErr)
	default:
		return apiErr
	}
}
