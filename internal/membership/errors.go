package membership

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was refused
type Kind uint8

const (
	KindInternal Kind = iota
	KindDenied
	KindInvariant
	KindNotFound
	KindConflict
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindDenied:
		return "denied"
	case KindInvariant:
		return "invariant"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	}
	return "internal"
}

// Error is an expected refusal. No state was changed when one is returned.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

var (
	ErrNotGroupAdmin   = &Error{KindDenied, "only group admins can perform this action"}
	ErrCannotInvite    = &Error{KindDenied, "not allowed to invite members to this group"}
	ErrNotInviter      = &Error{KindDenied, "only the inviter or a group admin can withdraw this invitation"}
	ErrNotJoinable     = &Error{KindDenied, "group is not open for joining"}
	ErrNotRequestable  = &Error{KindDenied, "group does not accept membership requests"}
	ErrNotVisible      = &Error{KindDenied, "group members are not visible"}
	ErrBanned          = &Error{KindDenied, "user is banned from this group"}
	ErrUnauthenticated = &Error{KindDenied, "login required"}

	ErrSoleAdmin = &Error{KindInvariant, "group must keep at least one admin"}

	ErrGroupNotFound      = &Error{KindNotFound, "group not found"}
	ErrUserNotFound       = &Error{KindNotFound, "user not found"}
	ErrMembershipNotFound = &Error{KindNotFound, "membership not found"}
	ErrNotMember          = &Error{KindNotFound, "user is not a member of this group"}
	ErrInviteNotFound     = &Error{KindNotFound, "invitation not found"}
	ErrRequestNotFound    = &Error{KindNotFound, "membership request not found"}

	ErrAlreadyMember       = &Error{KindConflict, "user is already a member of this group"}
	ErrDuplicateMembership = &Error{KindConflict, "a membership record already exists for this user"}
	ErrNotElevated         = &Error{KindConflict, "member is not a moderator or admin"}
	ErrNotBanned           = &Error{KindConflict, "member is not banned"}

	ErrInvalidRole       = &Error{KindInvalid, "invalid role"}
	ErrInvalidTransition = &Error{KindInvalid, "role change not allowed"}
)

// KindOf returns the kind of err, or KindInternal for unexpected failures
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Outcome says what a successful operation did
type Outcome uint8

const (
	OutcomeUnchanged Outcome = iota
	OutcomeCreated
	OutcomeUpdated
	OutcomeAccepted
	OutcomeDeleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeDeleted:
		return "deleted"
	}
	return "unchanged"
}

// MarshalText renders outcomes as words in JSON responses
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses the words produced by MarshalText
func (o *Outcome) UnmarshalText(text []byte) error {
	for _, c := range []Outcome{OutcomeUnchanged, OutcomeCreated, OutcomeUpdated, OutcomeAccepted, OutcomeDeleted} {
		if c.String() == string(text) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}
