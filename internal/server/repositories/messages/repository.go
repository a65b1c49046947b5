// Package messages stores the per-user conversation timeline.
package messages

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/gophcoach/internal/server/models"
)

type Repository interface {
	// Append stores one turn. Role must be user or assistant.
	Append(ctx context.Context, msg *models.Message) (*models.Message, error)
	// ListByUser returns the newest limit messages of userID in ascending
	// (created_at, id) order. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Message, error)
}

// oldestFirst flips rows fetched newest first, in place.
func oldestFirst(newestFirst []*models.Message) []*models.Message {
	slices.Reverse(newestFirst)
	return newestFirst
}
