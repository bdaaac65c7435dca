package membership

import (
	"context"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/internal/event"
	"github.com/fkhayef/groups/internal/group"
)

// Capability is something an actor may do inside a group
type Capability string

const (
	CapManage   Capability = "manage"   // role changes, requests, settings
	CapModerate Capability = "moderate" // content moderation
	CapInvite   Capability = "invite"
	CapView     Capability = "view" // see members of the group
)

// Capabilities is the set computed for one actor and group
type Capabilities map[Capability]bool

// CapabilityFunc may grant or revoke capabilities after the built-in rules ran.
// m is nil when the actor has no membership record.
type CapabilityFunc func(ctx context.Context, a actor.Actor, g *group.Group, m *Membership, caps Capabilities)

// Engine applies membership and role transitions
type Engine struct {
	store  Store
	groups GroupReader
	users  UserChecker
	events event.Emitter
	log    *zap.Logger
	policy *bluemonday.Policy

	mu       sync.RWMutex
	capHooks []CapabilityFunc
}

// NewEngine creates a membership engine
func NewEngine(store Store, groups GroupReader, users UserChecker, events event.Emitter, log *zap.Logger) *Engine {
	return &Engine{
		store:  store,
		groups: groups,
		users:  users,
		events: events,
		log:    log,
		policy: bluemonday.StrictPolicy(),
	}
}

// RegisterCapability adds a hook that adjusts computed capabilities
func (e *Engine) RegisterCapability(fn CapabilityFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.capHooks = append(e.capHooks, fn)
}

// Capabilities returns what a may do in the group, with the actor's record
func (e *Engine) Capabilities(ctx context.Context, a actor.Actor, groupID int64) (Capabilities, *Membership, error) {
	g, err := e.group(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	return e.capabilities(ctx, e.store, a, g)
}

// CanView reports whether a may see the group and its members
func (e *Engine) CanView(ctx context.Context, a actor.Actor, groupID int64) (bool, error) {
	return e.can(ctx, a, groupID, CapView)
}

// CanManage reports whether a administers the group
func (e *Engine) CanManage(ctx context.Context, a actor.Actor, groupID int64) (bool, error) {
	return e.can(ctx, a, groupID, CapManage)
}

func (e *Engine) can(ctx context.Context, a actor.Actor, groupID int64, c Capability) (bool, error) {
	caps, _, err := e.Capabilities(ctx, a, groupID)
	if err != nil {
		return false, err
	}
	return caps[c], nil
}

func (e *Engine) capabilities(ctx context.Context, s Store, a actor.Actor, g *group.Group) (Capabilities, *Membership, error) {
	var m *Membership
	if !a.IsZero() {
		var err error
		if m, err = s.Find(ctx, g.ID, a.UserID); err != nil {
			return nil, nil, err
		}
	}

	caps := Capabilities{}
	switch {
	case a.SiteAdmin:
		caps[CapManage], caps[CapModerate], caps[CapInvite], caps[CapView] = true, true, true, true
	case m != nil && m.IsActive():
		caps[CapView] = true
		switch m.Role {
		case RoleAdmin:
			caps[CapManage], caps[CapModerate], caps[CapInvite] = true, true, true
		case RoleMod:
			caps[CapModerate] = true
			caps[CapInvite] = g.InviteStatus != group.InviteAdmins
		default:
			caps[CapInvite] = g.InviteStatus == group.InviteMembers
		}
	default:
		caps[CapView] = g.Status != group.StatusHidden
	}

	e.mu.RLock()
	hooks := e.capHooks
	e.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, a, g, m, caps)
	}

	return caps, m, nil
}

// require fails with denied unless a holds capability c in g
func (e *Engine) require(ctx context.Context, s Store, a actor.Actor, g *group.Group, c Capability, denied error) error {
	if a.IsZero() {
		return ErrUnauthenticated
	}
	caps, _, err := e.capabilities(ctx, s, a, g)
	if err != nil {
		return err
	}
	if !caps[c] {
		return denied
	}
	return nil
}

func (e *Engine) group(ctx context.Context, groupID int64) (*group.Group, error) {
	g, err := e.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// guardSoleAdmin refuses to take m out of the admin quorum when it is the last one
func guardSoleAdmin(ctx context.Context, s Store, m *Membership) error {
	if !m.IsConfirmedAdmin() {
		return nil
	}
	admins, err := s.CountConfirmedAdmins(ctx, m.GroupID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return ErrSoleAdmin
	}
	return nil
}

// tx runs fn in a transaction holding the group lock and emits the
// collected events after commit.
func (e *Engine) tx(ctx context.Context, groupID int64, fn func(s Store, emit func(event.Event)) error) error {
	var pending []event.Event
	err := e.store.WithinTx(ctx, func(s Store) error {
		if err := s.LockGroup(ctx, groupID); err != nil {
			return err
		}
		return fn(s, func(ev event.Event) {
			ev.GroupID = groupID
			pending = append(pending, ev)
		})
	})
	if err != nil {
		return err
	}

	for _, ev := range pending {
		e.events.Emit(ctx, ev)
	}
	return nil
}
