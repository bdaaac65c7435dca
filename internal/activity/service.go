package activity

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/internal/event"
)

// ErrNotVisible is returned when the actor may not read a group's timeline
var ErrNotVisible = errors.New("group activity is not visible")

// Viewer decides who may read a group's timeline
type Viewer interface {
	CanView(ctx context.Context, a actor.Actor, groupID int64) (bool, error)
}

// recorded lists the events that appear on a timeline. Group deletion is
// absent because the timeline is deleted with the group.
var recorded = []event.Name{
	event.GroupCreated,
	event.GroupJoined,
	event.GroupLeft,
	event.InviteAccepted,
	event.MembershipRequestAccepted,
	event.MemberPromoted,
	event.MemberDemoted,
	event.MemberBanned,
	event.MemberUnbanned,
	event.MemberRemoved,
}

// Service records and serves group timelines
type Service struct {
	store  Store
	viewer Viewer
	log    *zap.Logger
}

// NewService creates the activity service
func NewService(store Store, viewer Viewer, log *zap.Logger) *Service {
	return &Service{store: store, viewer: viewer, log: log}
}

// Subscribe records timeline events from the bus
func (s *Service) Subscribe(bus *event.Bus) {
	bus.Subscribe(s.record, recorded...)
}

func (s *Service) record(ctx context.Context, e event.Event) error {
	return s.store.Insert(ctx, &Entry{
		ID:        e.ID,
		GroupID:   e.GroupID,
		UserID:    e.UserID,
		ActorID:   e.ActorID,
		Action:    string(e.Name),
		Detail:    e.Role,
		CreatedAt: e.At,
	})
}

// List returns a page of the group's timeline
func (s *Service) List(ctx context.Context, a actor.Actor, groupID int64, page, perPage int) ([]*Entry, int, error) {
	ok, err := s.viewer.CanView(ctx, a, groupID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrNotVisible
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.store.ListByGroup(ctx, groupID, perPage, (page-1)*perPage)
}
