package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestBusDispatchOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var got []string

	bus.Subscribe(func(_ context.Context, e Event) error {
		got = append(got, "first:"+string(e.Name))
		return errors.New("boom")
	}, GroupJoined, GroupLeft)
	bus.Subscribe(func(_ context.Context, e Event) error {
		got = append(got, "second:"+string(e.Name))
		return nil
	}, GroupJoined)

	bus.Emit(context.Background(), Event{Name: GroupJoined, GroupID: 1})
	bus.Emit(context.Background(), Event{Name: GroupLeft, GroupID: 1})
	bus.Emit(context.Background(), Event{Name: MemberBanned, GroupID: 1})

	want := []string{"first:groups_joined", "second:groups_joined", "first:groups_left"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBusStampsEvents(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var seen Event
	bus.Subscribe(func(_ context.Context, e Event) error {
		seen = e
		return nil
	}, GroupCreated)

	bus.Emit(context.Background(), Event{Name: GroupCreated})
	if seen.ID == uuid.Nil {
		t.Error("expected an event id")
	}
	if seen.At.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Emit(context.Background(), Event{Name: InviteSent})
	r.Emit(context.Background(), Event{Name: InviteAccepted})
	names := r.Names()
	if len(names) != 2 || names[0] != InviteSent || names[1] != InviteAccepted {
		t.Errorf("Names() = %v", names)
	}
	r.Reset()
	if len(r.Names()) != 0 {
		t.Error("Reset should clear events")
	}
}
