package activity

import (
	"context"
	"database/sql"
	"fmt"
)

// Store persists timeline entries
type Store interface {
	Insert(ctx context.Context, e *Entry) error
	ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*Entry, int, error)
}

// Repository stores entries in group_activity
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new activity repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one entry
func (r *Repository) Insert(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO group_activity (id, group_id, user_id, actor_id, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.GroupID, e.UserID, e.ActorID, e.Action, e.Detail, e.CreatedAt); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// ListByGroup returns a group's entries, newest first
func (r *Repository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM group_activity WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activity: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, actor_id, action, detail, created_at
		FROM group_activity
		WHERE group_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.GroupID, &e.UserID, &e.ActorID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
