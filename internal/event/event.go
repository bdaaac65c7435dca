// Package event is the in-process hook point that lets notifications and the
// group timeline react to group and membership changes.
package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Name identifies a kind of event
type Name string

const (
	GroupCreated              Name = "group_created"
	GroupDeleted              Name = "group_deleted"
	GroupJoined               Name = "groups_joined"
	GroupLeft                 Name = "groups_left"
	InviteSent                Name = "invite_sent"
	InviteAccepted            Name = "invite_accepted"
	InviteRejected            Name = "invite_rejected"
	InviteDeleted             Name = "invite_deleted"
	MembershipRequested       Name = "membership_requested"
	MembershipRequestAccepted Name = "membership_request_accepted"
	MembershipRequestRejected Name = "membership_request_rejected"
	MemberPromoted            Name = "member_promoted"
	MemberDemoted             Name = "member_demoted"
	MemberBanned              Name = "member_banned"
	MemberUnbanned            Name = "member_unbanned"
	MemberRemoved             Name = "member_removed"
)

// Event is the payload delivered to subscribers
type Event struct {
	ID      uuid.UUID
	Name    Name
	GroupID int64
	UserID  int64 // the member the event is about
	ActorID int64 // the user who caused it
	Role    string
	Comment string

	// Recipients lists extra users to inform, e.g. group admins on a request
	Recipients []int64
	At         time.Time
}

// Emitter publishes events. Emit never reports subscriber failures.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Handler reacts to an event
type Handler func(ctx context.Context, e Event) error

// Bus is a synchronous Emitter with named subscriptions
type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]Handler
	log      *zap.Logger
}

// NewBus creates an empty bus
func NewBus(log *zap.Logger) *Bus {
	return &Bus{handlers: make(map[Name][]Handler), log: log}
}

// Subscribe registers h for each of the given names
func (b *Bus) Subscribe(h Handler, names ...Name) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range names {
		b.handlers[n] = append(b.handlers[n], h)
	}
}

// Emit stamps the event and runs every subscriber in registration order.
func (b *Bus) Emit(ctx context.Context, e Event) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	hs := b.handlers[e.Name]
	b.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, e); err != nil {
			b.log.Warn("event handler failed",
				zap.String("event", string(e.Name)),
				zap.String("event_id", e.ID.String()),
				zap.Int64("group_id", e.GroupID),
				zap.Error(err))
		}
	}
}

// Recorder is an Emitter that keeps events in memory
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

// Names returns the recorded event names in order
func (r *Recorder) Names() []Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Name, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Name
	}
	return out
}

// Reset drops everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.Events = nil
	r.mu.Unlock()
}
