package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophcoach/internal/common"
	"github.com/dmitrijs2005/gophcoach/internal/dbx"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
)

// SQLiteRepository keeps created_at as Unix nanoseconds so that ordering
// is numeric.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if !msg.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", common.ErrValidation, msg.Role)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, user_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.UserID, string(msg.Role), msg.Content, msg.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, role, content, created_at FROM messages
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		var (
			role      string
			createdAt int64
		)
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Role = models.Role(role)
		m.CreatedAt = time.Unix(0, createdAt).UTC()
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return oldestFirst(result), nil
}
