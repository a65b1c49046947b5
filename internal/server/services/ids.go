package services

import (
	"time"

	"github.com/google/uuid"
)

// newID returns a UUIDv7. Within one process successive ids are strictly
// increasing, which keeps (created_at, id) ordering consistent with write
// order when timestamps collide.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// storedTime drops precision that Postgres would drop anyway.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
