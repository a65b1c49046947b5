// Package users stores accounts. Emails are kept normalised (lower-case) by
// the caller; both backends additionally enforce case-insensitive uniqueness.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophcoach/internal/server/models"
)

type Repository interface {
	// Create inserts user and returns common.ErrConflict when the email is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
