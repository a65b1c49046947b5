package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophcoach/internal/common"
	"github.com/dmitrijs2005/gophcoach/internal/dbx"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/repomanager"
)

const (
	maxEmailLen    = 254
	maxPasswordLen = 1024
	maxNameLen     = 100
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string
	User  *models.User
}

type UserService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(db dbx.DBTX, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		now:         time.Now,
	}
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Signup(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return nil, fmt.Errorf("%w: name is required (max %d characters)", common.ErrValidation, maxNameLen)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("error generating user id: %w", err)
	}

	user := &models.User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: &hash,
		CreatedAt:    storedTime(s.now()),
	}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// same cost as a real check so response time does not reveal
			// whether the account exists
			s.hasher.Verify(password, s.dummy())
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if user.PasswordHash == nil || !s.hasher.Verify(password, *user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	return s.issue(user)
}

// Me returns the account behind a verified token.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return user, nil
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("timing-equaliser")
	})
	return s.dummyHash
}

func validateCredentials(email, password string) error {
	if email == "" || len(email) > maxEmailLen {
		return fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	}
	if password == "" || len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password is required (max %d bytes)", common.ErrValidation, maxPasswordLen)
	}
	return nil
}
