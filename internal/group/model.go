package group

import "time"

// Status controls who can see and join a group
type Status string

const (
	StatusPublic  Status = "public"
	StatusPrivate Status = "private"
	StatusHidden  Status = "hidden"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPublic, StatusPrivate, StatusHidden:
		return true
	}
	return false
}

// InviteStatus controls which members may invite others
type InviteStatus string

const (
	InviteMembers InviteStatus = "members"
	InviteMods    InviteStatus = "mods"
	InviteAdmins  InviteStatus = "admins"
)

// Valid reports whether s is a known invite status
func (s InviteStatus) Valid() bool {
	switch s {
	case InviteMembers, InviteMods, InviteAdmins:
		return true
	}
	return false
}

// Group represents a group in the system
type Group struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	Description  string       `json:"description"`
	Status       Status       `json:"status"`
	InviteStatus InviteStatus `json:"invite_status"`
	EnableForum  bool         `json:"enable_forum"`
	CreatorID    int64        `json:"creator_id"`
	CreatedAt    time.Time    `json:"created_at"`

	// Confirmed, unbanned members; populated on reads
	MemberCount int `json:"member_count"`
}
