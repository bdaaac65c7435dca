package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fkhayef/groups/internal/database"
)

// Store persists groups
type Store interface {
	Create(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, id int64) (*Group, error)
	GetBySlug(ctx context.Context, slug string) (*Group, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]*Group, int, error)
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error)
	Update(ctx context.Context, g *Group) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// ListFilter narrows group listings
type ListFilter struct {
	Search string
	// ViewerID sees hidden groups they are an active member of
	ViewerID int64
	// All includes every hidden group
	All    bool
	Limit  int
	Offset int
}

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const groupColumns = `
	g.id, g.name, g.slug, g.description, g.status, g.invite_status, g.enable_forum,
	g.creator_id, g.created_at,
	(SELECT COUNT(*) FROM group_members m
	  WHERE m.group_id = g.id AND m.is_confirmed AND NOT m.is_banned)`

// Create inserts the group and its creator's admin membership in one transaction
func (r *Repository) Create(ctx context.Context, g *Group) error {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO groups (name, slug, description, status, invite_status, enable_forum, creator_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`, g.Name, g.Slug, g.Description, g.Status, g.InviteStatus, g.EnableForum, g.CreatorID,
		).Scan(&g.ID, &g.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id, role, is_confirmed)
			VALUES ($1, $2, 'admin', TRUE)
		`, g.ID, g.CreatorID)
		return err
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to create group: %w", err)
	}

	g.MemberCount = 1
	return nil
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	return r.one(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.id = $1`, id)
}

// GetBySlug retrieves a group by its slug
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Group, error) {
	return r.one(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.slug = $1`, slug)
}

func (r *Repository) one(ctx context.Context, query string, args ...any) (*Group, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// SlugExists reports whether a group already uses slug
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// List retrieves groups visible under filter, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*Group, int, error) {
	var (
		where []string
		args  []any
	)
	if !filter.All {
		args = append(args, filter.ViewerID)
		where = append(where, `(g.status <> 'hidden' OR EXISTS (
			SELECT 1 FROM group_members v
			 WHERE v.group_id = g.id AND v.user_id = $1 AND v.is_confirmed AND NOT v.is_banned))`)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := strconv.Itoa(len(args))
		where = append(where, `(g.name ILIKE $`+n+` OR g.description ILIKE $`+n+`)`)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups g`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + groupColumns + ` FROM groups g` + clause +
		` ORDER BY g.created_at DESC, g.id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	groups, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

// ListForUser retrieves the groups a user is an active member of
func (r *Repository) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM group_members gm
		WHERE gm.user_id = $1 AND gm.is_confirmed AND NOT gm.is_banned
	`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1 AND gm.is_confirmed AND NOT gm.is_banned
		ORDER BY g.name
		LIMIT $2 OFFSET $3
	`
	groups, err := r.list(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

// Update writes the group's editable fields
func (r *Repository) Update(ctx context.Context, g *Group) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE groups
		SET name = $2, description = $3, status = $4, invite_status = $5, enable_forum = $6
		WHERE id = $1
	`, g.ID, g.Name, g.Description, g.Status, g.InviteStatus, g.EnableForum)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// Delete removes a group. Memberships and activity go with it through
// foreign keys; notifications pointing at the group are removed here.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM notifications
			WHERE related_entity_type = 'group' AND related_entity_id = $1
		`, id); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		deleted = n > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete group: %w", err)
	}
	return deleted, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*Group, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*Group, error) {
	g := &Group{}
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Slug,
		&g.Description,
		&g.Status,
		&g.InviteStatus,
		&g.EnableForum,
		&g.CreatorID,
		&g.CreatedAt,
		&g.MemberCount,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}
