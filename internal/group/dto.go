package group

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name         string       `json:"name" validate:"required,min=1,max=100"`
	Description  string       `json:"description" validate:"max=5000"`
	Status       Status       `json:"status,omitempty" validate:"omitempty,oneof=public private hidden"`
	InviteStatus InviteStatus `json:"invite_status,omitempty" validate:"omitempty,oneof=members mods admins"`
	EnableForum  bool         `json:"enable_forum"`
}

// UpdateGroupRequest represents the request to update a group's details or settings
type UpdateGroupRequest struct {
	Name         *string       `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string       `json:"description,omitempty" validate:"omitempty,max=5000"`
	Status       *Status       `json:"status,omitempty" validate:"omitempty,oneof=public private hidden"`
	InviteStatus *InviteStatus `json:"invite_status,omitempty" validate:"omitempty,oneof=members mods admins"`
	EnableForum  *bool         `json:"enable_forum,omitempty"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	Description  string       `json:"description,omitempty"`
	Status       Status       `json:"status"`
	InviteStatus InviteStatus `json:"invite_status"`
	EnableForum  bool         `json:"enable_forum"`
	CreatorID    int64        `json:"creator_id"`
	MemberCount  int          `json:"member_count"`
	CreatedAt    string       `json:"created_at"`
}

// ToResponse converts a Group model to a GroupResponse DTO
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:           g.ID,
		Name:         g.Name,
		Slug:         g.Slug,
		Description:  g.Description,
		Status:       g.Status,
		InviteStatus: g.InviteStatus,
		EnableForum:  g.EnableForum,
		CreatorID:    g.CreatorID,
		MemberCount:  g.MemberCount,
		CreatedAt:    g.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func toResponses(groups []*Group) []*GroupResponse {
	out := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = g.ToResponse()
	}
	return out
}
