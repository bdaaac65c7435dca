// Package activity keeps a per-group timeline of membership changes.
package activity

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one line of a group's timeline
type Entry struct {
	ID        uuid.UUID `json:"id"`
	GroupID   int64     `json:"group_id"`
	UserID    int64     `json:"user_id"`
	ActorID   int64     `json:"actor_id,omitempty"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
