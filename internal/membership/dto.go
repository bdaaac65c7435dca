package membership

import "sort"

// InviteRequest invites one or more users to a group
type InviteRequest struct {
	UserIDs []int64 `json:"user_ids" validate:"required,min=1,max=50,dive,gt=0"`
	Message string  `json:"message,omitempty" validate:"max=1000"`
	Send    bool    `json:"send"`
}

// JoinRequest asks to become a member of a group
type JoinRequest struct {
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}

// PromoteRequest names the role to promote to
type PromoteRequest struct {
	Role Role `json:"role" validate:"required,oneof=mod admin"`
}

// ChangeRoleRequest is the bulk-edit role change
type ChangeRoleRequest struct {
	Role RoleState `json:"role" validate:"required,oneof=member mod admin banned"`
}

// OutcomeResponse reports what an operation did
type OutcomeResponse struct {
	Outcome Outcome `json:"outcome"`
}

// InviteResult is the per-user result of a bulk invite
type InviteResult struct {
	UserID  int64   `json:"user_id"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// InviteResponse summarizes a bulk invite
type InviteResponse struct {
	Results []InviteResult `json:"results"`
	Sent    int            `json:"sent"`
}

// SendResponse reports how many invitations were delivered
type SendResponse struct {
	Sent int `json:"sent"`
}

// MemberResponse represents a member in a listing
type MemberResponse struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	Username     string `json:"username,omitempty"`
	Role         Role   `json:"role"`
	IsBanned     bool   `json:"is_banned"`
	InviterID    int64  `json:"inviter_id,omitempty"`
	InviteSent   bool   `json:"invite_sent,omitempty"`
	Comments     string `json:"comments,omitempty"`
	DateModified string `json:"date_modified"`
}

// SelfResponse describes the caller's standing in a group
type SelfResponse struct {
	Status       string          `json:"status"`
	Membership   *MemberResponse `json:"membership,omitempty"`
	Capabilities []Capability    `json:"capabilities"`
}

// ToResponse converts a Membership model to a MemberResponse DTO
func (m *Membership) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:           m.ID,
		UserID:       m.UserID,
		Username:     m.Username,
		Role:         m.Role,
		IsBanned:     m.IsBanned,
		InviterID:    m.InviterID,
		InviteSent:   m.InviteSent,
		Comments:     m.Comments,
		DateModified: m.DateModified.Format("2006-01-02T15:04:05Z"),
	}
}

// StatusLabel names the membership state of m; m may be nil
func StatusLabel(m *Membership) string {
	switch {
	case m == nil:
		return "none"
	case m.IsInvite():
		return "invited"
	case m.IsRequest():
		return "requested"
	case m.IsBanned:
		return "banned"
	}
	return "member"
}

// List returns the granted capabilities in a stable order
func (c Capabilities) List() []Capability {
	out := make([]Capability, 0, len(c))
	for name, ok := range c {
		if ok {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func toResponses(ms []*Membership) []*MemberResponse {
	out := make([]*MemberResponse, len(ms))
	for i, m := range ms {
		out[i] = m.ToResponse()
	}
	return out
}
