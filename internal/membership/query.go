package membership

import (
	"context"

	"github.com/fkhayef/groups/internal/actor"
)

// Members lists confirmed members visible to the actor. Banned members are
// only listed for group admins.
func (e *Engine) Members(ctx context.Context, a actor.Actor, groupID int64, filter MemberFilter, page, perPage int) ([]*Membership, int, error) {
	g, err := e.group(ctx, groupID)
	if err != nil {
		return nil, 0, err
	}
	caps, _, err := e.capabilities(ctx, e.store, a, g)
	if err != nil {
		return nil, 0, err
	}
	if !caps[CapView] {
		return nil, 0, ErrNotVisible
	}
	if !caps[CapManage] {
		filter.IncludeBanned, filter.OnlyBanned = false, false
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return e.store.ListMembers(ctx, groupID, filter, perPage, (page-1)*perPage)
}

// PendingRequests lists the membership requests a group admin must decide
func (e *Engine) PendingRequests(ctx context.Context, a actor.Actor, groupID int64) ([]*Membership, error) {
	g, err := e.group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := e.require(ctx, e.store, a, g, CapManage, ErrNotGroupAdmin); err != nil {
		return nil, err
	}
	return e.store.ListPendingRequests(ctx, groupID)
}

// InvitesFor lists delivered invitations waiting for the actor's answer
func (e *Engine) InvitesFor(ctx context.Context, a actor.Actor) ([]*Membership, error) {
	if a.IsZero() {
		return nil, ErrUnauthenticated
	}
	return e.store.ListInvitesForUser(ctx, a.UserID)
}

// UnsentInvites lists invitations the actor made but has not sent yet
func (e *Engine) UnsentInvites(ctx context.Context, a actor.Actor, groupID int64) ([]*Membership, error) {
	if a.IsZero() {
		return nil, ErrUnauthenticated
	}
	if _, err := e.group(ctx, groupID); err != nil {
		return nil, err
	}
	return e.store.ListUnsentInvites(ctx, a.UserID, groupID)
}

// AdminIDs returns the user ids of a group's confirmed admins
func (e *Engine) AdminIDs(ctx context.Context, groupID int64) ([]int64, error) {
	return e.store.ListAdminIDs(ctx, groupID)
}
