package membership

import (
	"context"

	"github.com/fkhayef/groups/internal/group"
)

// Store persists membership records. Implementations return nil, nil when a
// lookup finds nothing.
type Store interface {
	Create(ctx context.Context, m *Membership) error
	Update(ctx context.Context, m *Membership) error
	Delete(ctx context.Context, groupID, userID int64) (bool, error)
	Find(ctx context.Context, groupID, userID int64) (*Membership, error)
	FindByID(ctx context.Context, id int64) (*Membership, error)

	CountConfirmedAdmins(ctx context.Context, groupID int64) (int, error)
	ListAdminIDs(ctx context.Context, groupID int64) ([]int64, error)
	ListPendingRequests(ctx context.Context, groupID int64) ([]*Membership, error)
	ListUnsentInvites(ctx context.Context, inviterID, groupID int64) ([]*Membership, error)
	ListInvitesForUser(ctx context.Context, userID int64) ([]*Membership, error)
	ListMembers(ctx context.Context, groupID int64, filter MemberFilter, limit, offset int) ([]*Membership, int, error)

	// LockGroup serializes membership changes of one group until the
	// surrounding transaction ends.
	LockGroup(ctx context.Context, groupID int64) error

	// WithinTx runs fn against a transactional view of the store.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// GroupReader resolves groups for status and invite policy checks
type GroupReader interface {
	GetByID(ctx context.Context, id int64) (*group.Group, error)
}

// UserChecker confirms that invitees exist
type UserChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}
