package wizard

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/internal/group"
	"github.com/fkhayef/groups/internal/membership"
	"github.com/fkhayef/groups/pkg/validate"
)

// Slugs of the built-in steps
const (
	StepDetails  = "group-details"
	StepSettings = "group-settings"
	StepInvites  = "group-invites"
)

// ErrInvalidForm wraps a step form that failed to decode or validate
var ErrInvalidForm = errors.New("invalid step form")

// Groups is the part of the group service the wizard drives
type Groups interface {
	CreateDraft(ctx context.Context, a actor.Actor, req *group.CreateGroupRequest) (*group.Group, error)
	UpdateSettings(ctx context.Context, a actor.Actor, id int64, req *group.UpdateGroupRequest) (*group.Group, error)
	Get(ctx context.Context, a actor.Actor, id int64) (*group.Group, error)
	Announce(ctx context.Context, a actor.Actor, g *group.Group)
}

// Inviter queues and sends invitations
type Inviter interface {
	Invite(ctx context.Context, a actor.Actor, groupID, userID int64, message string) (membership.Outcome, error)
	SendInvites(ctx context.Context, a actor.Actor, groupID int64) (int, error)
}

// DetailsForm is submitted on the group-details step
type DetailsForm struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=5000"`
}

// SettingsForm is submitted on the group-settings step
type SettingsForm struct {
	Status       group.Status       `json:"status" validate:"required,oneof=public private hidden"`
	InviteStatus group.InviteStatus `json:"invite_status" validate:"required,oneof=members mods admins"`
	EnableForum  bool               `json:"enable_forum"`
}

// InvitesForm is submitted on the group-invites step
type InvitesForm struct {
	UserIDs []int64 `json:"user_ids" validate:"max=100,dive,gt=0"`
	Message string  `json:"message" validate:"max=1000"`
}

// DefaultSteps returns the details, settings and invites steps
func DefaultSteps(groups Groups, invites Inviter) []Step {
	return []Step{
		{Slug: StepDetails, Name: "Details", Position: 0, Save: saveDetails(groups)},
		{Slug: StepSettings, Name: "Settings", Position: 10, Save: saveSettings(groups)},
		{Slug: StepInvites, Name: "Invites", Position: 20, Save: saveInvites(invites)},
	}
}

// saveDetails creates the group on first save and renames it afterwards
func saveDetails(groups Groups) SaveFunc {
	return func(ctx context.Context, in Input) (int64, error) {
		var form DetailsForm
		if err := decodeForm(in.Body, &form); err != nil {
			return 0, err
		}

		if in.GroupID == 0 {
			g, err := groups.CreateDraft(ctx, in.Actor, &group.CreateGroupRequest{
				Name:        form.Name,
				Description: form.Description,
			})
			if err != nil {
				return 0, err
			}
			return g.ID, nil
		}

		_, err := groups.UpdateSettings(ctx, in.Actor, in.GroupID, &group.UpdateGroupRequest{
			Name:        &form.Name,
			Description: &form.Description,
		})
		return 0, err
	}
}

func saveSettings(groups Groups) SaveFunc {
	return func(ctx context.Context, in Input) (int64, error) {
		if in.GroupID == 0 {
			return 0, ErrNoGroup
		}
		var form SettingsForm
		if err := decodeForm(in.Body, &form); err != nil {
			return 0, err
		}
		_, err := groups.UpdateSettings(ctx, in.Actor, in.GroupID, &group.UpdateGroupRequest{
			Status:       &form.Status,
			InviteStatus: &form.InviteStatus,
			EnableForum:  &form.EnableForum,
		})
		return 0, err
	}
}

// saveInvites queues an invitation per user and sends them all. Users that
// do not exist or already belong to the group are skipped.
func saveInvites(invites Inviter) SaveFunc {
	return func(ctx context.Context, in Input) (int64, error) {
		if in.GroupID == 0 {
			return 0, ErrNoGroup
		}
		var form InvitesForm
		if err := decodeForm(in.Body, &form); err != nil {
			return 0, err
		}

		for _, id := range form.UserIDs {
			_, err := invites.Invite(ctx, in.Actor, in.GroupID, id, form.Message)
			switch membership.KindOf(err) {
			case membership.KindNotFound, membership.KindConflict:
				continue
			}
			if err != nil {
				return 0, err
			}
		}
		_, err := invites.SendInvites(ctx, in.Actor, in.GroupID)
		return 0, err
	}
}

func decodeForm(body json.RawMessage, dst any) error {
	if len(body) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return &FormError{msg: "Invalid request body"}
		}
	}
	if err := validate.Struct(dst); err != nil {
		return &FormError{msg: err.Error()}
	}
	return nil
}

// FormError describes a rejected step form
type FormError struct {
	msg string
}

func (e *FormError) Error() string { return e.msg }

func (e *FormError) Unwrap() error { return ErrInvalidForm }
