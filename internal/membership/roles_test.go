package membership

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/internal/event"
	"github.com/fkhayef/groups/internal/group"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to RoleState
		want     []Step
		ok       bool
	}{
		{StateMember, StateMod, []Step{StepPromoteMod}, true},
		{StateMember, StateAdmin, []Step{StepPromoteAdmin}, true},
		{StateMod, StateMember, []Step{StepDemote}, true},
		{StateAdmin, StateMod, []Step{StepDemote, StepPromoteMod}, true},
		{StateAdmin, StateBanned, []Step{StepBan}, true},
		{StateBanned, StateAdmin, []Step{StepUnban, StepPromoteAdmin}, true},
		{StateMod, StateMod, nil, true},
		{"owner", StateMember, nil, false},
		{"owner", "owner", nil, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			got, ok := Transition(tt.from, tt.to)
			if ok != tt.ok || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Transition = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestChangeRoleAdminToModWritesOnce(t *testing.T) {
	f := newFixture(t)
	f.admin(publicGroup, 1)
	f.admin(publicGroup, 2)

	out, err := f.engine.ChangeRole(context.Background(), as(1), publicGroup, 2, StateMod)
	if err != nil || out != OutcomeUpdated {
		t.Fatalf("ChangeRole = %v, %v", out, err)
	}
	if m := f.store.get(publicGroup, 2); m.Role != RoleMod || m.IsBanned {
		t.Errorf("membership = %+v", m)
	}

	want := []event.Name{event.MemberDemoted, event.MemberPromoted}
	if got := f.events.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if ev := f.events.Events[1]; ev.Role != string(RoleMod) || ev.ActorID != 1 || ev.UserID != 2 {
		t.Errorf("promotion event = %+v", ev)
	}
}

func TestChangeRoleRejectsUnknownState(t *testing.T) {
	f := newFixture(t)
	f.admin(publicGroup, 1)
	f.member(publicGroup, 2, RoleMember)

	if _, err := f.engine.ChangeRole(context.Background(), as(1), publicGroup, 2, "owner"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("err = %v, want ErrInvalidRole", err)
	}
	out, err := f.engine.ChangeRole(context.Background(), as(1), publicGroup, 2, StateMember)
	if err != nil || out != OutcomeUnchanged {
		t.Errorf("same state = %v, %v", out, err)
	}
}

func TestPromote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.admin(publicGroup, 1)
	f.member(publicGroup, 2, RoleMember)
	f.member(publicGroup, 3, RoleAdmin)
	f.store.put(Membership{GroupID: publicGroup, UserID: 4, IsConfirmed: true, IsBanned: true})

	if out, err := f.engine.Promote(ctx, as(1), publicGroup, 2, RoleMod); err != nil || out != OutcomeUpdated {
		t.Errorf("promote member = %v, %v", out, err)
	}
	if out, err := f.engine.Promote(ctx, as(1), publicGroup, 2, RoleMod); err != nil || out != OutcomeUnchanged {
		t.Errorf("promote mod again = %v, %v", out, err)
	}
	if _, err := f.engine.Promote(ctx, as(1), publicGroup, 3, RoleMod); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("promote admin to mod err = %v", err)
	}
	if _, err := f.engine.Promote(ctx, as(1), publicGroup, 2, RoleMember); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("promote to member err = %v", err)
	}

	f.events.Reset()
	if _, err := f.engine.Promote(ctx, as(1), publicGroup, 4, RoleAdmin); err != nil {
		t.Fatalf("promote banned: %v", err)
	}
	if m := f.store.get(publicGroup, 4); m.IsBanned || m.Role != RoleAdmin {
		t.Errorf("banned member after promote = %+v", m)
	}
	want := []event.Name{event.MemberUnbanned, event.MemberPromoted}
	if got := f.events.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestBanAndUnban(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.admin(publicGroup, 1)
	f.member(publicGroup, 2, RoleMod)

	if out, err := f.engine.Ban(ctx, as(1), publicGroup, 2); err != nil || out != OutcomeUpdated {
		t.Fatalf("Ban = %v, %v", out, err)
	}
	m := f.store.get(publicGroup, 2)
	if !m.IsBanned || m.Role != RoleMember || !m.IsConfirmed {
		t.Errorf("banned row = %+v", m)
	}
	if out, err := f.engine.Ban(ctx, as(1), publicGroup, 2); err != nil || out != OutcomeUnchanged {
		t.Errorf("second Ban = %v, %v", out, err)
	}
	if _, err := f.engine.Demote(ctx, as(1), publicGroup, 2); !errors.Is(err, ErrNotElevated) {
		t.Errorf("demote banned err = %v", err)
	}

	if out, err := f.engine.Unban(ctx, as(1), publicGroup, 2); err != nil || out != OutcomeUpdated {
		t.Fatalf("Unban = %v, %v", out, err)
	}
	if _, err := f.engine.Unban(ctx, as(1), publicGroup, 2); !errors.Is(err, ErrNotBanned) {
		t.Errorf("second Unban err = %v", err)
	}
}

func TestRoleEditsRequireManage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.admin(publicGroup, 1)
	f.member(publicGroup, 2, RoleMod)
	f.member(publicGroup, 3, RoleMember)

	if _, err := f.engine.Promote(ctx, as(2), publicGroup, 3, RoleMod); !errors.Is(err, ErrNotGroupAdmin) {
		t.Errorf("mod promote err = %v", err)
	}
	if _, err := f.engine.Ban(ctx, actor.Actor{}, publicGroup, 3); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous ban err = %v", err)
	}
	if _, err := f.engine.Demote(ctx, as(1), publicGroup, 9); !errors.Is(err, ErrNotMember) {
		t.Errorf("demote stranger err = %v", err)
	}
	if out, err := f.engine.Promote(ctx, actor.Actor{UserID: 8, SiteAdmin: true}, publicGroup, 3, RoleAdmin); err != nil || out != OutcomeUpdated {
		t.Errorf("site admin promote = %v, %v", out, err)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.admin(publicGroup, 1)
	f.member(publicGroup, 2, RoleMember)
	f.invite(publicGroup, 3, 1, true)

	if out, err := f.engine.Remove(ctx, as(1), publicGroup, 2); err != nil || out != OutcomeDeleted {
		t.Fatalf("Remove = %v, %v", out, err)
	}
	if f.store.get(publicGroup, 2) != nil {
		t.Error("row should be gone")
	}
	if _, err := f.engine.Remove(ctx, as(1), publicGroup, 3); !errors.Is(err, ErrNotMember) {
		t.Errorf("remove invitee err = %v", err)
	}
	if got := f.events.Names(); !reflect.DeepEqual(got, []event.Name{event.MemberRemoved}) {
		t.Errorf("events = %v", got)
	}
}

func TestCapabilities(t *testing.T) {
	f := newFixture(t)
	f.admin(hiddenGroup, 1)
	f.member(hiddenGroup, 2, RoleMod)
	f.member(hiddenGroup, 3, RoleMember)

	tests := []struct {
		name string
		a    actor.Actor
		want []Capability
	}{
		{name: "admin", a: as(1), want: []Capability{CapInvite, CapManage, CapModerate, CapView}},
		{name: "mod in admins-invite group", a: as(2), want: []Capability{CapModerate, CapView}},
		{name: "member", a: as(3), want: []Capability{CapView}},
		{name: "outsider", a: as(4), want: []Capability{}},
		{name: "anonymous", a: actor.Actor{}, want: []Capability{}},
		{name: "site admin", a: actor.Actor{UserID: 5, SiteAdmin: true}, want: []Capability{CapInvite, CapManage, CapModerate, CapView}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps, _, err := f.engine.Capabilities(context.Background(), tt.a, hiddenGroup)
			if err != nil {
				t.Fatal(err)
			}
			if got := caps.List(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("caps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegisterCapabilityHook(t *testing.T) {
	f := newFixture(t)
	f.member(privateGroup, 2, RoleMember)
	f.engine.RegisterCapability(func(_ context.Context, _ actor.Actor, g *group.Group, m *Membership, caps Capabilities) {
		if g.ID == privateGroup && m != nil && m.IsActive() {
			caps[CapInvite] = true
		}
	})

	if out, err := f.engine.Invite(context.Background(), as(2), privateGroup, 5, ""); err != nil || out != OutcomeCreated {
		t.Errorf("Invite with hook = %v, %v", out, err)
	}
}

func TestMembersHidesBannedFromNonManagers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.admin(publicGroup, 1)
	f.member(publicGroup, 2, RoleMember)
	f.store.put(Membership{GroupID: publicGroup, UserID: 3, IsConfirmed: true, IsBanned: true})
	f.member(hiddenGroup, 1, RoleAdmin)

	filter := MemberFilter{OnlyBanned: true}
	got, total, err := f.engine.Members(ctx, as(1), publicGroup, filter, 1, 20)
	if err != nil || total != 1 || got[0].UserID != 3 {
		t.Errorf("admin banned list = %v, %d, %v", got, total, err)
	}
	_, total, err = f.engine.Members(ctx, as(2), publicGroup, filter, 1, 20)
	if err != nil || total != 2 {
		t.Errorf("member listing = %d, %v; want 2 unbanned members", total, err)
	}
	if _, _, err := f.engine.Members(ctx, as(2), hiddenGroup, MemberFilter{}, 1, 20); !errors.Is(err, ErrNotVisible) {
		t.Errorf("hidden listing err = %v", err)
	}
}
