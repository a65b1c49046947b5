package models

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r may be stored as a persisted message role.
// System turns are synthesised per request and never stored.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one persisted conversational turn.
type Message struct {
	ID        string
	UserID    string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Turn is one element of the context sent to the completion provider.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
