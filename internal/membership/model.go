package membership

import "time"

// Role is the rank of a confirmed member inside a group
type Role string

const (
	RoleMember Role = "member"
	RoleMod    Role = "mod"
	RoleAdmin  Role = "admin"
)

// rank orders roles for promotion checks
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleMod:
		return 1
	case RoleMember:
		return 0
	}
	return -1
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r.rank() >= 0
}

// Membership is the single record kept per (user, group) pair.
//
// Unconfirmed rows with an inviter are invitations, unconfirmed rows without
// one are membership requests, and confirmed rows are members.
type Membership struct {
	ID           int64     `json:"id"`
	GroupID      int64     `json:"group_id"`
	UserID       int64     `json:"user_id"`
	InviterID    int64     `json:"inviter_id"`
	Role         Role      `json:"role"`
	IsBanned     bool      `json:"is_banned"`
	IsConfirmed  bool      `json:"is_confirmed"`
	InviteSent   bool      `json:"invite_sent"`
	Comments     string    `json:"comments,omitempty"`
	DateModified time.Time `json:"date_modified"`

	// Populated from JOIN
	Username string `json:"username,omitempty"`
}

// IsInvite reports an outstanding invitation
func (m *Membership) IsInvite() bool {
	return !m.IsConfirmed && m.InviterID > 0
}

// IsRequest reports an outstanding membership request
func (m *Membership) IsRequest() bool {
	return !m.IsConfirmed && m.InviterID == 0
}

// IsActive reports a confirmed, unbanned member
func (m *Membership) IsActive() bool {
	return m.IsConfirmed && !m.IsBanned
}

// IsConfirmedAdmin reports whether the row counts toward the admin quorum
func (m *Membership) IsConfirmedAdmin() bool {
	return m.IsActive() && m.Role == RoleAdmin
}

// State is the role-edit view of a confirmed member: its role, or banned.
func (m *Membership) State() RoleState {
	if m.IsBanned {
		return StateBanned
	}
	return RoleState(m.Role)
}

// MemberFilter narrows member listings
type MemberFilter struct {
	Roles         []Role
	IncludeBanned bool
	OnlyBanned    bool
}
