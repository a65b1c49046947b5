package messages

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophcoach/internal/common"
	"github.com/dmitrijs2005/gophcoach/internal/dbx"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if !msg.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", common.ErrValidation, msg.Role)
	}

	query :=
		`INSERT INTO messages (id, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.UserID, string(msg.Role), msg.Content, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Message, error) {
	query :=
		`SELECT id, user_id, role, content, created_at FROM messages
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 `
	args := []any{userID}
	if limit > 0 {
		query += `LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		var role string
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Role = models.Role(role)
		m.CreatedAt = m.CreatedAt.UTC()
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return oldestFirst(result), nil
}
