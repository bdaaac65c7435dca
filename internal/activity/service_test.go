package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/internal/event"
)

type memStore struct {
	entries []*Entry
}

func (m *memStore) Insert(_ context.Context, e *Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) ListByGroup(_ context.Context, groupID int64, limit, offset int) ([]*Entry, int, error) {
	var out []*Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].GroupID == groupID {
			out = append(out, m.entries[i])
		}
	}
	total := len(out)
	if offset > total {
		offset = total
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

type viewerFunc func(a actor.Actor) bool

func (f viewerFunc) CanView(_ context.Context, a actor.Actor, _ int64) (bool, error) {
	return f(a), nil
}

func TestRecordsTimelineEvents(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, viewerFunc(func(a actor.Actor) bool { return a.UserID == 1 }), zap.NewNop())
	bus := event.NewBus(zap.NewNop())
	svc.Subscribe(bus)

	ctx := context.Background()
	bus.Emit(ctx, event.Event{Name: event.GroupJoined, GroupID: 3, UserID: 2, ActorID: 2})
	bus.Emit(ctx, event.Event{Name: event.MemberPromoted, GroupID: 3, UserID: 2, ActorID: 1, Role: "mod"})
	bus.Emit(ctx, event.Event{Name: event.InviteSent, GroupID: 3, UserID: 4, ActorID: 1})

	entries, total, err := svc.List(ctx, actor.Actor{UserID: 1}, 3, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	latest := entries[0]
	if latest.Action != string(event.MemberPromoted) || latest.Detail != "mod" || latest.ActorID != 1 {
		t.Errorf("latest = %+v", latest)
	}
	if latest.ID == uuid.Nil || latest.CreatedAt.IsZero() {
		t.Errorf("entry should carry the event id and time: %+v", latest)
	}

	if _, _, err := svc.List(ctx, actor.Actor{UserID: 9}, 3, 1, 20); !errors.Is(err, ErrNotVisible) {
		t.Errorf("outsider err = %v", err)
	}
}
