package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophcoach/internal/common"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticator resolves the bearer token of a request to an Identity.
type Authenticator struct {
	tokens TokenVerifier
}

func NewAuthenticator(tokens TokenVerifier) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Authenticate always fails with common.ErrorUnauthorized; the wrapped cause
// is for logs only.
func (a *Authenticator) Authenticate(h http.Header) (Identity, error) {
	raw := strings.TrimSpace(h.Get(common.AuthorizationHeaderName))
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: missing authorization header", common.ErrorUnauthorized)
	}

	scheme, token, ok := strings.Cut(raw, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
		return Identity{}, fmt.Errorf("%w: malformed authorization header", common.ErrorUnauthorized)
	}

	userID, err := a.tokens.Verify(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	return Identity{UserID: userID}, nil
}

type ctxKey string

const identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}
