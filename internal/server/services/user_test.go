package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophcoach/internal/common"
	"github.com/dmitrijs2005/gophcoach/internal/dbx"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*UserService, *sql.DB) {
	t.Helper()
	db, m := newStore(t)
	return NewUserService(db, m, newTestHasher(), newTestTokens(t)), db
}

func TestSignupThenLogin_TokenResolvesToSameUser(t *testing.T) {
	svc, _ := newUserService(t)
	tokens := svc.tokens.(interface{ Verify(string) (string, error) })
	ctx := context.Background()

	signed, err := svc.Signup(ctx, "a@x.com", "pw1", "Ann")
	require.NoError(t, err)
	require.NotEmpty(t, signed.User.ID)
	assert.Equal(t, "a@x.com", signed.User.Email)
	assert.Equal(t, "Ann", signed.User.Name)

	logged, err := svc.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	uid, err := tokens.Verify(logged.Token)
	require.NoError(t, err)
	assert.Equal(t, signed.User.ID, uid)

	uid, err = tokens.Verify(signed.Token)
	require.NoError(t, err)
	assert.Equal(t, signed.User.ID, uid)
}

func TestSignup_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Ann@X.com", "pw1", "Ann")
	require.NoError(t, err)

	for _, email := range []string{"ann@x.com", "ANN@X.COM", "  ann@x.com "} {
		_, err = svc.Signup(ctx, email, "other", "Imposter")
		require.ErrorIs(t, err, common.ErrConflict, email)
	}

	res, err := svc.Login(ctx, "ANN@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", res.User.Email)
}

func TestSignup_Validation(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	tests := []struct{ email, password, name string }{
		{"", "pw", "Ann"},
		{"not-an-email", "pw", "Ann"},
		{"Ann <a@x.com>", "pw", "Ann"},
		{"a@x.com", "", "Ann"},
		{"a@x.com", "pw", "   "},
	}
	for _, tt := range tests {
		_, err := svc.Signup(ctx, tt.email, tt.password, tt.name)
		require.ErrorIs(t, err, common.ErrValidation, "%+v", tt)
	}
}

func TestLogin_WrongCredentialsAreUnauthorized(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "a@x.com", "pw1", "Ann")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = svc.Login(ctx, "ghost@x.com", "pw1")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = svc.Login(ctx, "", "pw1")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestLogin_AccountWithoutPasswordCannotLogIn(t *testing.T) {
	svc, db := newUserService(t)
	seedUser(t, db, "federated")

	_, err := svc.Login(context.Background(), "federated@example.com", "")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Login(context.Background(), "federated@example.com", "anything")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestMe(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	signed, err := svc.Signup(ctx, "a@x.com", "pw1", "Ann")
	require.NoError(t, err)

	me, err := svc.Me(ctx, signed.User.ID)
	require.NoError(t, err)
	assert.Equal(t, signed.User.Email, me.Email)
	assert.True(t, signed.User.CreatedAt.Equal(me.CreatedAt))

	_, err = svc.Me(ctx, "deleted-user")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

type brokenUsers struct{ users.Repository }

func (brokenUsers) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, errors.New("db error: connection refused")
}

type brokenUsersManager struct{}

func (brokenUsersManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (brokenUsersManager) Users(dbx.DBTX) users.Repository              { return brokenUsers{} }
func (brokenUsersManager) Messages(dbx.DBTX) messages.Repository        { return nil }

func TestLogin_StoreFailureIsNotUnauthorized(t *testing.T) {
	svc := NewUserService(nil, brokenUsersManager{}, newTestHasher(), newTestTokens(t))

	_, err := svc.Login(context.Background(), "a@x.com", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorUnauthorized))
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("rng failure") }
func (failingHasher) Verify(string, string) bool  { return false }

func TestSignup_FailsClosedWhenHashingFails(t *testing.T) {
	db, m := newStore(t)
	svc := NewUserService(db, m, failingHasher{}, newTestTokens(t))

	_, err := svc.Signup(context.Background(), "a@x.com", "pw1", "Ann")
	require.Error(t, err)

	_, err = m.Users(db).GetUserByEmail(context.Background(), "a@x.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
