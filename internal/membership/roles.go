package membership

import (
	"context"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/internal/event"
)

// RoleState is what a group admin can set a confirmed member to
type RoleState string

const (
	StateMember RoleState = RoleState(RoleMember)
	StateMod    RoleState = RoleState(RoleMod)
	StateAdmin  RoleState = RoleState(RoleAdmin)
	StateBanned RoleState = "banned"
)

// Valid reports whether s is a known state
func (s RoleState) Valid() bool {
	return s == StateBanned || Role(s).Valid()
}

// Step is one primitive change applied during a role transition
type Step string

const (
	StepUnban        Step = "unban"
	StepDemote       Step = "demote"
	StepPromoteMod   Step = "promote_mod"
	StepPromoteAdmin Step = "promote_admin"
	StepBan          Step = "ban"
)

type transitionKey struct {
	from, to RoleState
}

// transitions declares every legal role edit as an ordered list of steps.
// All steps of a transition are written in one update; each step still
// emits its own event.
var transitions = map[transitionKey][]Step{
	{StateMember, StateMod}:    {StepPromoteMod},
	{StateMember, StateAdmin}:  {StepPromoteAdmin},
	{StateMember, StateBanned}: {StepBan},
	{StateMod, StateMember}:    {StepDemote},
	{StateMod, StateAdmin}:     {StepPromoteAdmin},
	{StateMod, StateBanned}:    {StepBan},
	{StateAdmin, StateMember}:  {StepDemote},
	{StateAdmin, StateMod}:     {StepDemote, StepPromoteMod},
	{StateAdmin, StateBanned}:  {StepBan},
	{StateBanned, StateMember}: {StepUnban},
	{StateBanned, StateMod}:    {StepUnban, StepPromoteMod},
	{StateBanned, StateAdmin}:  {StepUnban, StepPromoteAdmin},
}

// Transition returns the steps that take a member from one state to another.
// ok is false when no such edit exists; from == to yields no steps.
func Transition(from, to RoleState) (steps []Step, ok bool) {
	if from == to {
		return nil, from.Valid()
	}
	steps, ok = transitions[transitionKey{from, to}]
	return steps, ok
}

// apply mutates m for one step and returns the event describing it
func (s Step) apply(m *Membership) event.Event {
	ev := event.Event{UserID: m.UserID}
	switch s {
	case StepUnban:
		m.IsBanned = false
		ev.Name = event.MemberUnbanned
	case StepDemote:
		m.Role = RoleMember
		ev.Name = event.MemberDemoted
	case StepPromoteMod:
		m.Role = RoleMod
		ev.Name, ev.Role = event.MemberPromoted, string(RoleMod)
	case StepPromoteAdmin:
		m.Role = RoleAdmin
		ev.Name, ev.Role = event.MemberPromoted, string(RoleAdmin)
	case StepBan:
		m.IsBanned = true
		m.Role = RoleMember
		ev.Name = event.MemberBanned
	}
	return ev
}

// ChangeRole moves a confirmed member to the target state through the
// declared transition. Taking the last admin out of the admin role fails
// with ErrSoleAdmin.
func (e *Engine) ChangeRole(ctx context.Context, a actor.Actor, groupID, userID int64, to RoleState) (Outcome, error) {
	if !to.Valid() {
		return OutcomeUnchanged, ErrInvalidRole
	}
	return e.transition(ctx, a, groupID, userID, func(m *Membership) ([]Step, error) {
		steps, ok := Transition(m.State(), to)
		if !ok {
			return nil, ErrInvalidTransition
		}
		return steps, nil
	})
}

// Promote raises a member to mod or admin, lifting a ban first
func (e *Engine) Promote(ctx context.Context, a actor.Actor, groupID, userID int64, role Role) (Outcome, error) {
	if role != RoleMod && role != RoleAdmin {
		return OutcomeUnchanged, ErrInvalidRole
	}
	return e.transition(ctx, a, groupID, userID, func(m *Membership) ([]Step, error) {
		if !m.IsBanned && m.Role.rank() > role.rank() {
			return nil, ErrInvalidTransition
		}
		steps, _ := Transition(m.State(), RoleState(role))
		return steps, nil
	})
}

// Demote returns a mod or admin to plain member
func (e *Engine) Demote(ctx context.Context, a actor.Actor, groupID, userID int64) (Outcome, error) {
	return e.transition(ctx, a, groupID, userID, func(m *Membership) ([]Step, error) {
		if m.IsBanned || m.Role == RoleMember {
			return nil, ErrNotElevated
		}
		return []Step{StepDemote}, nil
	})
}

// Ban flags the member as banned. The row is kept so the ban is remembered.
func (e *Engine) Ban(ctx context.Context, a actor.Actor, groupID, userID int64) (Outcome, error) {
	return e.transition(ctx, a, groupID, userID, func(m *Membership) ([]Step, error) {
		if m.IsBanned {
			return nil, nil
		}
		return []Step{StepBan}, nil
	})
}

// Unban clears a ban
func (e *Engine) Unban(ctx context.Context, a actor.Actor, groupID, userID int64) (Outcome, error) {
	return e.transition(ctx, a, groupID, userID, func(m *Membership) ([]Step, error) {
		if !m.IsBanned {
			return nil, ErrNotBanned
		}
		return []Step{StepUnban}, nil
	})
}

// Remove deletes a confirmed member's record outright
func (e *Engine) Remove(ctx context.Context, a actor.Actor, groupID, userID int64) (Outcome, error) {
	g, err := e.group(ctx, groupID)
	if err != nil {
		return OutcomeUnchanged, err
	}

	err = e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		if err := e.require(ctx, s, a, g, CapManage, ErrNotGroupAdmin); err != nil {
			return err
		}
		m, err := s.Find(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if m == nil || !m.IsConfirmed {
			return ErrNotMember
		}
		if err := guardSoleAdmin(ctx, s, m); err != nil {
			return err
		}
		if _, err := s.Delete(ctx, groupID, userID); err != nil {
			return err
		}
		emit(event.Event{Name: event.MemberRemoved, UserID: userID, ActorID: a.UserID})
		return nil
	})
	if err != nil {
		return OutcomeUnchanged, err
	}
	return OutcomeDeleted, nil
}

// transition is the shared path of every role edit: authorize, load the
// confirmed target, plan steps, enforce the admin quorum, write once.
func (e *Engine) transition(ctx context.Context, a actor.Actor, groupID, userID int64, plan func(m *Membership) ([]Step, error)) (Outcome, error) {
	g, err := e.group(ctx, groupID)
	if err != nil {
		return OutcomeUnchanged, err
	}

	outcome := OutcomeUnchanged
	err = e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		if err := e.require(ctx, s, a, g, CapManage, ErrNotGroupAdmin); err != nil {
			return err
		}

		m, err := s.Find(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if m == nil || !m.IsConfirmed {
			return ErrNotMember
		}

		steps, err := plan(m)
		if err != nil || len(steps) == 0 {
			return err
		}

		updated := *m
		var events []event.Event
		for _, step := range steps {
			ev := step.apply(&updated)
			ev.ActorID = a.UserID
			events = append(events, ev)
		}
		if !updated.IsConfirmedAdmin() {
			if err := guardSoleAdmin(ctx, s, m); err != nil {
				return err
			}
		}

		if err := s.Update(ctx, &updated); err != nil {
			return err
		}
		for _, ev := range events {
			emit(ev)
		}
		outcome = OutcomeUpdated
		return nil
	})
	if err != nil {
		return OutcomeUnchanged, err
	}
	return outcome, nil
}
