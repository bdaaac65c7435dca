package membership

import (
	"context"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/internal/event"
	"github.com/fkhayef/groups/internal/group"
)

// Join makes the actor a confirmed member of a public group. Pending
// invitations or requests are consumed. Joining twice is a no-op.
func (e *Engine) Join(ctx context.Context, a actor.Actor, groupID int64) (Outcome, error) {
	if a.IsZero() {
		return OutcomeUnchanged, ErrUnauthenticated
	}
	g, err := e.group(ctx, groupID)
	if err != nil {
		return OutcomeUnchanged, err
	}
	if g.Status != group.StatusPublic && !a.SiteAdmin {
		return OutcomeUnchanged, ErrNotJoinable
	}

	outcome := OutcomeUnchanged
	err = e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		m, err := s.Find(ctx, groupID, a.UserID)
		if err != nil {
			return err
		}
		if m != nil && m.IsConfirmed {
			if m.IsBanned {
				return ErrBanned
			}
			return nil
		}
		if m != nil {
			if _, err := s.Delete(ctx, groupID, a.UserID); err != nil {
				return err
			}
		}

		if err := s.Create(ctx, &Membership{
			GroupID:     groupID,
			UserID:      a.UserID,
			Role:        RoleMember,
			IsConfirmed: true,
		}); err != nil {
			return err
		}
		emit(event.Event{Name: event.GroupJoined, UserID: a.UserID, ActorID: a.UserID})
		outcome = OutcomeCreated
		return nil
	})
	if err != nil {
		return OutcomeUnchanged, err
	}
	return outcome, nil
}

// Leave deletes the actor's membership unless they are the last admin
func (e *Engine) Leave(ctx context.Context, a actor.Actor, groupID int64) (Outcome, error) {
	if a.IsZero() {
		return OutcomeUnchanged, ErrUnauthenticated
	}
	if _, err := e.group(ctx, groupID); err != nil {
		return OutcomeUnchanged, err
	}

	err := e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		m, err := s.Find(ctx, groupID, a.UserID)
		if err != nil {
			return err
		}
		if m == nil || !m.IsConfirmed {
			return ErrNotMember
		}
		if m.IsBanned {
			return ErrBanned
		}
		if err := guardSoleAdmin(ctx, s, m); err != nil {
			return err
		}
		if _, err := s.Delete(ctx, groupID, a.UserID); err != nil {
			return err
		}
		emit(event.Event{Name: event.GroupLeft, UserID: a.UserID, ActorID: a.UserID})
		return nil
	})
	if err != nil {
		return OutcomeUnchanged, err
	}
	return OutcomeDeleted, nil
}

// Invite records an unsent invitation from the actor to userID. A pending
// request from the same user is accepted instead. Existing invitations and
// memberships are left alone.
func (e *Engine) Invite(ctx context.Context, a actor.Actor, groupID, userID int64, message string) (Outcome, error) {
	g, err := e.group(ctx, groupID)
	if err != nil {
		return OutcomeUnchanged, err
	}
	exists, err := e.users.Exists(ctx, userID)
	if err != nil {
		return OutcomeUnchanged, err
	}
	if !exists {
		return OutcomeUnchanged, ErrUserNotFound
	}

	outcome := OutcomeUnchanged
	err = e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		if err := e.require(ctx, s, a, g, CapInvite, ErrCannotInvite); err != nil {
			return err
		}

		m, err := s.Find(ctx, groupID, userID)
		if err != nil {
			return err
		}
		switch {
		case m == nil:
			if err := s.Create(ctx, &Membership{
				GroupID:   groupID,
				UserID:    userID,
				InviterID: a.UserID,
				Role:      RoleMember,
				Comments:  e.clean(message),
			}); err != nil {
				return err
			}
			outcome = OutcomeCreated
		case m.IsRequest():
			if err := confirm(ctx, s, m); err != nil {
				return err
			}
			emit(event.Event{Name: event.MembershipRequestAccepted, UserID: userID, ActorID: a.UserID})
			emit(event.Event{Name: event.GroupJoined, UserID: userID, ActorID: a.UserID})
			outcome = OutcomeAccepted
		case m.IsConfirmed && m.IsBanned:
			return ErrBanned
		}
		return nil
	})
	if err != nil {
		return OutcomeUnchanged, err
	}
	return outcome, nil
}

// Uninvite withdraws an outstanding invitation. The inviter or a group admin
// may do this.
func (e *Engine) Uninvite(ctx context.Context, a actor.Actor, groupID, userID int64) (Outcome, error) {
	if a.IsZero() {
		return OutcomeUnchanged, ErrUnauthenticated
	}
	g, err := e.group(ctx, groupID)
	if err != nil {
		return OutcomeUnchanged, err
	}

	err = e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		m, err := s.Find(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if m == nil || !m.IsInvite() {
			return ErrInviteNotFound
		}
		if m.InviterID != a.UserID {
			if err := e.require(ctx, s, a, g, CapManage, ErrNotInviter); err != nil {
				return err
			}
		}
		return deleteInvite(ctx, s, m, a, event.InviteDeleted, emit)
	})
	if err != nil {
		return OutcomeUnchanged, err
	}
	return OutcomeDeleted, nil
}

// SendInvites delivers every unsent invitation the actor made in the group
// and returns how many went out. Already delivered invitations are skipped.
func (e *Engine) SendInvites(ctx context.Context, a actor.Actor, groupID int64) (int, error) {
	if a.IsZero() {
		return 0, ErrUnauthenticated
	}
	if _, err := e.group(ctx, groupID); err != nil {
		return 0, err
	}

	sent := 0
	err := e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		invites, err := s.ListUnsentInvites(ctx, a.UserID, groupID)
		if err != nil {
			return err
		}
		for _, m := range invites {
			m.InviteSent = true
			if err := s.Update(ctx, m); err != nil {
				return err
			}
			emit(event.Event{Name: event.InviteSent, UserID: m.UserID, ActorID: a.UserID, Comment: m.Comments})
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}

// AcceptInvite turns the actor's invitation into a confirmed membership
func (e *Engine) AcceptInvite(ctx context.Context, a actor.Actor, groupID int64) (Outcome, error) {
	if a.IsZero() {
		return OutcomeUnchanged, ErrUnauthenticated
	}
	if _, err := e.group(ctx, groupID); err != nil {
		return OutcomeUnchanged, err
	}

	outcome := OutcomeUnchanged
	err := e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		var err error
		outcome, err = acceptInvite(ctx, s, groupID, a.UserID, emit)
		return err
	})
	if err != nil {
		return OutcomeUnchanged, err
	}
	return outcome, nil
}

func acceptInvite(ctx context.Context, s Store, groupID, userID int64, emit func(event.Event)) (Outcome, error) {
	m, err := s.Find(ctx, groupID, userID)
	if err != nil {
		return OutcomeUnchanged, err
	}
	if m != nil && m.IsConfirmed {
		return OutcomeUnchanged, nil
	}
	if m == nil || !m.IsInvite() {
		return OutcomeUnchanged, ErrInviteNotFound
	}

	m.InviteSent = true
	if err := confirm(ctx, s, m); err != nil {
		return OutcomeUnchanged, err
	}
	emit(event.Event{Name: event.InviteAccepted, UserID: userID, ActorID: userID, Recipients: []int64{m.InviterID}})
	emit(event.Event{Name: event.GroupJoined, UserID: userID, ActorID: userID})
	return OutcomeAccepted, nil
}

// RejectInvite lets the actor decline an invitation
func (e *Engine) RejectInvite(ctx context.Context, a actor.Actor, groupID int64) (Outcome, error) {
	if a.IsZero() {
		return OutcomeUnchanged, ErrUnauthenticated
	}
	return e.DeleteInvite(ctx, a, groupID, a.UserID)
}

// DeleteInvite removes the invitation for userID without an inviter check.
// Callers are responsible for authorization.
func (e *Engine) DeleteInvite(ctx context.Context, a actor.Actor, groupID, userID int64) (Outcome, error) {
	if _, err := e.group(ctx, groupID); err != nil {
		return OutcomeUnchanged, err
	}

	err := e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		m, err := s.Find(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if m == nil || !m.IsInvite() {
			return ErrInviteNotFound
		}
		return deleteInvite(ctx, s, m, a, event.InviteRejected, emit)
	})
	if err != nil {
		return OutcomeUnchanged, err
	}
	return OutcomeDeleted, nil
}

func deleteInvite(ctx context.Context, s Store, m *Membership, a actor.Actor, name event.Name, emit func(event.Event)) error {
	if _, err := s.Delete(ctx, m.GroupID, m.UserID); err != nil {
		return err
	}
	emit(event.Event{Name: name, UserID: m.UserID, ActorID: a.UserID, Recipients: []int64{m.InviterID}})
	return nil
}

// RequestMembership asks the group admins to let the actor in. An existing
// invitation is accepted instead; a repeated request changes nothing.
func (e *Engine) RequestMembership(ctx context.Context, a actor.Actor, groupID int64, comment string) (Outcome, error) {
	if a.IsZero() {
		return OutcomeUnchanged, ErrUnauthenticated
	}
	g, err := e.group(ctx, groupID)
	if err != nil {
		return OutcomeUnchanged, err
	}
	if g.Status == group.StatusHidden && !a.SiteAdmin {
		return OutcomeUnchanged, ErrNotRequestable
	}

	outcome := OutcomeUnchanged
	err = e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		m, err := s.Find(ctx, groupID, a.UserID)
		if err != nil {
			return err
		}
		switch {
		case m == nil:
		case m.IsConfirmed && m.IsBanned:
			return ErrBanned
		case m.IsConfirmed:
			return ErrAlreadyMember
		case m.IsRequest():
			return nil
		case m.IsInvite():
			outcome, err = acceptInvite(ctx, s, groupID, a.UserID, emit)
			return err
		}

		req := &Membership{
			GroupID:  groupID,
			UserID:   a.UserID,
			Role:     RoleMember,
			Comments: e.clean(comment),
		}
		if err := s.Create(ctx, req); err != nil {
			return err
		}
		admins, err := s.ListAdminIDs(ctx, groupID)
		if err != nil {
			return err
		}
		emit(event.Event{
			Name:       event.MembershipRequested,
			UserID:     a.UserID,
			ActorID:    a.UserID,
			Comment:    req.Comments,
			Recipients: admins,
		})
		outcome = OutcomeCreated
		return nil
	})
	if err != nil {
		return OutcomeUnchanged, err
	}
	return outcome, nil
}

// RequestRef identifies a pending membership request by its record id
type RequestRef struct {
	GroupID int64
	ID      int64
}

// AcceptMembershipRequest confirms the referenced request
func (e *Engine) AcceptMembershipRequest(ctx context.Context, a actor.Actor, ref RequestRef) (*Membership, error) {
	return e.decideRequest(ctx, a, ref, true)
}

// RejectMembershipRequest deletes the referenced request
func (e *Engine) RejectMembershipRequest(ctx context.Context, a actor.Actor, ref RequestRef) (*Membership, error) {
	return e.decideRequest(ctx, a, ref, false)
}

func (e *Engine) decideRequest(ctx context.Context, a actor.Actor, ref RequestRef, accept bool) (*Membership, error) {
	g, err := e.group(ctx, ref.GroupID)
	if err != nil {
		return nil, err
	}

	var result *Membership
	err = e.tx(ctx, g.ID, func(s Store, emit func(event.Event)) error {
		if err := e.require(ctx, s, a, g, CapManage, ErrNotGroupAdmin); err != nil {
			return err
		}
		m, err := s.FindByID(ctx, ref.ID)
		if err != nil {
			return err
		}
		if m == nil || m.GroupID != ref.GroupID || !m.IsRequest() {
			return ErrRequestNotFound
		}

		if !accept {
			if _, err := s.Delete(ctx, m.GroupID, m.UserID); err != nil {
				return err
			}
			emit(event.Event{Name: event.MembershipRequestRejected, UserID: m.UserID, ActorID: a.UserID})
			result = m
			return nil
		}

		if err := confirm(ctx, s, m); err != nil {
			return err
		}
		emit(event.Event{Name: event.MembershipRequestAccepted, UserID: m.UserID, ActorID: a.UserID})
		emit(event.Event{Name: event.GroupJoined, UserID: m.UserID, ActorID: a.UserID})
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AcceptAllPendingRequests confirms every pending request of a group. It is
// run by the system when a group becomes public.
func (e *Engine) AcceptAllPendingRequests(ctx context.Context, groupID int64) (int, error) {
	accepted := 0
	err := e.tx(ctx, groupID, func(s Store, emit func(event.Event)) error {
		pending, err := s.ListPendingRequests(ctx, groupID)
		if err != nil {
			return err
		}
		for _, m := range pending {
			if err := confirm(ctx, s, m); err != nil {
				return err
			}
			emit(event.Event{Name: event.MembershipRequestAccepted, UserID: m.UserID})
			emit(event.Event{Name: event.GroupJoined, UserID: m.UserID})
			accepted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if accepted > 0 {
		e.log.Info("accepted pending membership requests",
			zap.Int64("group_id", groupID),
			zap.Int("count", accepted))
	}
	return accepted, nil
}

// confirm turns an invitation or request into a plain membership
func confirm(ctx context.Context, s Store, m *Membership) error {
	m.IsConfirmed = true
	m.Role = RoleMember
	m.IsBanned = false
	return s.Update(ctx, m)
}

func (e *Engine) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(e.policy.Sanitize(text)))
}
