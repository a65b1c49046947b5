package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophcoach/internal/common"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertUserQuery  = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*name,\s*password_hash,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*$`
	selectByEmailQry = `(?s)^SELECT\s+id,\s*email,\s*name,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)\s*$`
	selectByIDQry    = `(?s)^SELECT\s+id,\s*email,\s*name,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func strPtr(s string) *string { return &s }

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(insertUserQuery).
		WithArgs("u-1", "ann@x.com", "Ann", "hash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{ID: "u-1", Email: "ann@x.com", Name: "Ann", PasswordHash: strPtr("hash"), CreatedAt: now}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NullPasswordHash(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(insertUserQuery).
		WithArgs("u-2", "oauth@x.com", "O", nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.Create(context.Background(), &models.User{ID: "u-2", Email: "oauth@x.com", Name: "O", CreatedAt: now})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "ann@x.com"})
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQuery).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "ann@x.com"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetUserByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	rows := sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at"}).
		AddRow("u-1", "ann@x.com", "Ann", "hash", created)
	mock.ExpectQuery(selectByEmailQry).
		WithArgs("ann@x.com").
		WillReturnRows(rows)

	got, err := repo.GetUserByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "Ann", got.Name)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, "hash", *got.PasswordHash)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestGetUserByEmail_NullHash(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at"}).
		AddRow("u-1", "ann@x.com", "Ann", nil, time.Now())
	mock.ExpectQuery(selectByEmailQry).WithArgs("ann@x.com").WillReturnRows(rows)

	got, err := repo.GetUserByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.Nil(t, got.PasswordHash)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByEmailQry).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetUserByID_MalformedIDIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByIDQry).
		WithArgs("not-a-uuid").
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	_, err := repo.GetUserByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetUserByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByIDQry).
		WithArgs("u-1").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetUserByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
