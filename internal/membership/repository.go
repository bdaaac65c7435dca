package membership

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fkhayef/groups/internal/database"
)

const memberColumns = `gm.id, gm.group_id, gm.user_id, gm.inviter_id, gm.role, gm.is_banned,
	gm.is_confirmed, gm.invite_sent, gm.comments, gm.date_modified`

// Repository is the Postgres Store
type Repository struct {
	db *sql.DB
	q  database.Querier
}

// NewRepository creates a new membership repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

// WithinTx runs fn in a transaction. Nested calls reuse the open transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if _, inTx := r.q.(*sql.Tx); inTx {
		return fn(r)
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&Repository{db: r.db, q: tx})
	})
}

// LockGroup takes a row lock on the group
func (r *Repository) LockGroup(ctx context.Context, groupID int64) error {
	var id int64
	err := r.q.QueryRowContext(ctx, `SELECT id FROM groups WHERE id = $1 FOR UPDATE`, groupID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to lock group: %w", err)
	}
	return nil
}

// Create inserts a membership record and fills in its id
func (r *Repository) Create(ctx context.Context, m *Membership) error {
	query := `
		INSERT INTO group_members (group_id, user_id, inviter_id, role, is_banned, is_confirmed, invite_sent, comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, date_modified
	`

	err := r.q.QueryRowContext(ctx, query,
		m.GroupID, m.UserID, m.InviterID, m.Role, m.IsBanned, m.IsConfirmed, m.InviteSent, m.Comments,
	).Scan(&m.ID, &m.DateModified)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateMembership
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}

	return nil
}

// Update writes every mutable field of m
func (r *Repository) Update(ctx context.Context, m *Membership) error {
	query := `
		UPDATE group_members
		SET inviter_id = $2, role = $3, is_banned = $4, is_confirmed = $5,
		    invite_sent = $6, comments = $7, date_modified = NOW()
		WHERE id = $1
		RETURNING date_modified
	`

	err := r.q.QueryRowContext(ctx, query,
		m.ID, m.InviterID, m.Role, m.IsBanned, m.IsConfirmed, m.InviteSent, m.Comments,
	).Scan(&m.DateModified)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to update membership: %w", err)
	}

	return nil
}

// Delete removes the record for (groupID, userID)
func (r *Repository) Delete(ctx context.Context, groupID, userID int64) (bool, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete membership: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Find retrieves the record for (groupID, userID)
func (r *Repository) Find(ctx context.Context, groupID, userID int64) (*Membership, error) {
	query := `SELECT ` + memberColumns + `
		FROM group_members gm
		WHERE gm.group_id = $1 AND gm.user_id = $2`

	return r.one(ctx, query, groupID, userID)
}

// FindByID retrieves a record by its id
func (r *Repository) FindByID(ctx context.Context, id int64) (*Membership, error) {
	query := `SELECT ` + memberColumns + `
		FROM group_members gm
		WHERE gm.id = $1`

	return r.one(ctx, query, id)
}

func (r *Repository) one(ctx context.Context, query string, args ...any) (*Membership, error) {
	m, err := scanMembership(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// CountConfirmedAdmins counts unbanned, confirmed admins of a group
func (r *Repository) CountConfirmedAdmins(ctx context.Context, groupID int64) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM group_members
		WHERE group_id = $1 AND role = 'admin' AND is_confirmed = TRUE AND is_banned = FALSE
	`
	if err := r.q.QueryRowContext(ctx, query, groupID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// ListAdminIDs returns the user ids of a group's confirmed admins
func (r *Repository) ListAdminIDs(ctx context.Context, groupID int64) ([]int64, error) {
	query := `
		SELECT user_id FROM group_members
		WHERE group_id = $1 AND role = 'admin' AND is_confirmed = TRUE AND is_banned = FALSE
		ORDER BY user_id
	`

	rows, err := r.q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPendingRequests returns unconfirmed requests, oldest first
func (r *Repository) ListPendingRequests(ctx context.Context, groupID int64) ([]*Membership, error) {
	query := `SELECT ` + memberColumns + `, u.username
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1 AND gm.is_confirmed = FALSE AND gm.inviter_id = 0
		ORDER BY gm.date_modified, gm.id`

	return r.list(ctx, query, groupID)
}

// ListUnsentInvites returns invitations by inviterID that were never delivered
func (r *Repository) ListUnsentInvites(ctx context.Context, inviterID, groupID int64) ([]*Membership, error) {
	query := `SELECT ` + memberColumns + `, u.username
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1 AND gm.inviter_id = $2 AND gm.is_confirmed = FALSE AND gm.invite_sent = FALSE
		ORDER BY gm.id`

	return r.list(ctx, query, groupID, inviterID)
}

// ListInvitesForUser returns delivered invitations awaiting the user's answer.
// Username carries the inviter's name.
func (r *Repository) ListInvitesForUser(ctx context.Context, userID int64) ([]*Membership, error) {
	query := `SELECT ` + memberColumns + `, u.username
		FROM group_members gm
		JOIN users u ON gm.inviter_id = u.id
		WHERE gm.user_id = $1 AND gm.is_confirmed = FALSE AND gm.inviter_id > 0 AND gm.invite_sent = TRUE
		ORDER BY gm.date_modified DESC`

	return r.list(ctx, query, userID)
}

// ListMembers returns confirmed members of a group
func (r *Repository) ListMembers(ctx context.Context, groupID int64, filter MemberFilter, limit, offset int) ([]*Membership, int, error) {
	where := []string{"gm.group_id = $1", "gm.is_confirmed = TRUE"}
	args := []any{groupID}

	switch {
	case filter.OnlyBanned:
		where = append(where, "gm.is_banned = TRUE")
	case !filter.IncludeBanned:
		where = append(where, "gm.is_banned = FALSE")
	}
	if len(filter.Roles) > 0 {
		placeholders := make([]string, len(filter.Roles))
		for i, role := range filter.Roles {
			args = append(args, role)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where = append(where, "gm.role IN ("+strings.Join(placeholders, ", ")+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM group_members gm WHERE ` + cond
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count members: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT `+memberColumns+`, u.username
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE %s
		ORDER BY CASE gm.role WHEN 'admin' THEN 0 WHEN 'mod' THEN 1 ELSE 2 END, gm.date_modified
		LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args))

	members, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// list scans rows that carry memberColumns followed by a username
func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*Membership, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var out []*Membership
	for rows.Next() {
		m := &Membership{}
		if err := rows.Scan(
			&m.ID,
			&m.GroupID,
			&m.UserID,
			&m.InviterID,
			&m.Role,
			&m.IsBanned,
			&m.IsConfirmed,
			&m.InviteSent,
			&m.Comments,
			&m.DateModified,
			&m.Username,
		); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (*Membership, error) {
	m := &Membership{}
	err := row.Scan(
		&m.ID,
		&m.GroupID,
		&m.UserID,
		&m.InviterID,
		&m.Role,
		&m.IsBanned,
		&m.IsConfirmed,
		&m.InviteSent,
		&m.Comments,
		&m.DateModified,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
