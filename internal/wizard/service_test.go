package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/internal/group"
	"github.com/fkhayef/groups/internal/membership"
)

type fakeGroups struct {
	groups    map[int64]*group.Group
	nextID    int64
	announced []int64
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{groups: map[int64]*group.Group{}}
}

func (f *fakeGroups) CreateDraft(_ context.Context, a actor.Actor, req *group.CreateGroupRequest) (*group.Group, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, group.ErrInvalidName
	}
	f.nextID++
	g := &group.Group{
		ID:           f.nextID,
		Name:         req.Name,
		Description:  req.Description,
		Status:       group.StatusPublic,
		InviteStatus: group.InviteMembers,
		CreatorID:    a.UserID,
	}
	f.groups[g.ID] = g
	return g, nil
}

func (f *fakeGroups) UpdateSettings(_ context.Context, a actor.Actor, id int64, req *group.UpdateGroupRequest) (*group.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, group.ErrGroupNotFound
	}
	if g.CreatorID != a.UserID {
		return nil, group.ErrNotAuthorized
	}
	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.Status != nil {
		g.Status = *req.Status
	}
	if req.InviteStatus != nil {
		g.InviteStatus = *req.InviteStatus
	}
	if req.EnableForum != nil {
		g.EnableForum = *req.EnableForum
	}
	return g, nil
}

func (f *fakeGroups) Get(_ context.Context, _ actor.Actor, id int64) (*group.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, group.ErrGroupNotFound
	}
	return g, nil
}

func (f *fakeGroups) Announce(_ context.Context, _ actor.Actor, g *group.Group) {
	f.announced = append(f.announced, g.ID)
}

func (f *fakeGroups) CanManage(_ context.Context, a actor.Actor, id int64) (bool, error) {
	g, ok := f.groups[id]
	if !ok {
		return false, membership.ErrGroupNotFound
	}
	return g.CreatorID == a.UserID, nil
}

type fakeInviter struct {
	queued []int64
	sent   int
}

func (f *fakeInviter) Invite(_ context.Context, _ actor.Actor, _, userID int64, _ string) (membership.Outcome, error) {
	if userID == 99 {
		return membership.OutcomeUnchanged, membership.ErrUserNotFound
	}
	f.queued = append(f.queued, userID)
	return membership.OutcomeCreated, nil
}

func (f *fakeInviter) SendInvites(context.Context, actor.Actor, int64) (int, error) {
	n := len(f.queued) - f.sent
	f.sent = len(f.queued)
	return n, nil
}

type wizardFixture struct {
	svc     *Service
	groups  *fakeGroups
	invites *fakeInviter
	tokens  *MemoryTokens
}

func newWizardFixture(t *testing.T) *wizardFixture {
	t.Helper()
	groups := newFakeGroups()
	invites := &fakeInviter{}
	reg, err := NewRegistry(DefaultSteps(groups, invites)...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return &wizardFixture{
		svc:     NewService(reg, groups, groups, time.Hour, zap.NewNop()),
		groups:  groups,
		invites: invites,
		tokens:  NewMemoryTokens(),
	}
}

var creator = actor.Actor{UserID: 1}

func (f *wizardFixture) save(t *testing.T, slug, body string) *Progress {
	t.Helper()
	p, err := f.svc.Save(context.Background(), creator, f.tokens, slug, json.RawMessage(body))
	if err != nil {
		t.Fatalf("Save(%s): %v", slug, err)
	}
	return p
}

func TestWizardCreatesGroupStepByStep(t *testing.T) {
	f := newWizardFixture(t)

	p := f.save(t, StepDetails, `{"name":"Book Club","description":"monthly"}`)
	if p.Step != StepSettings || p.GroupID != 1 || p.Done {
		t.Fatalf("after details: %+v", p)
	}
	if len(f.groups.announced) != 0 {
		t.Fatal("group announced before the wizard finished")
	}

	p = f.save(t, StepSettings, `{"status":"private","invite_status":"mods","enable_forum":true}`)
	if p.Step != StepInvites {
		t.Fatalf("after settings: step %q", p.Step)
	}
	g := f.groups.groups[1]
	if g.Status != group.StatusPrivate || g.InviteStatus != group.InviteMods || !g.EnableForum {
		t.Errorf("settings not applied: %+v", g)
	}

	p = f.save(t, StepInvites, `{"user_ids":[2,99,3],"message":"come along"}`)
	if !p.Done || p.GroupID != 1 {
		t.Fatalf("after invites: %+v", p)
	}
	if !reflect.DeepEqual(f.invites.queued, []int64{2, 3}) || f.invites.sent != 2 {
		t.Errorf("invites queued %v, sent %d", f.invites.queued, f.invites.sent)
	}
	if !reflect.DeepEqual(f.groups.announced, []int64{1}) {
		t.Errorf("announced = %v, want [1]", f.groups.announced)
	}

	// A finished wizard starts over.
	show, err := f.svc.Show(context.Background(), creator, f.tokens, "")
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if show.Step != StepDetails || show.GroupID != 0 {
		t.Errorf("after finish: %+v", show)
	}
}

func TestWizardResavingDetailsUpdatesGroup(t *testing.T) {
	f := newWizardFixture(t)
	f.save(t, StepDetails, `{"name":"First"}`)

	p := f.save(t, StepDetails, `{"name":"Second"}`)
	if p.GroupID != 1 || len(f.groups.groups) != 1 {
		t.Fatalf("resave created another group: %+v", p)
	}
	if f.groups.groups[1].Name != "Second" {
		t.Errorf("name = %q, want Second", f.groups.groups[1].Name)
	}
}

func TestWizardRedirectsToFirstIncompleteStep(t *testing.T) {
	f := newWizardFixture(t)

	p := f.save(t, StepInvites, `{"user_ids":[2]}`)
	if !p.Redirected || p.Step != StepDetails {
		t.Fatalf("progress = %+v, want redirect to details", p)
	}
	if len(f.invites.queued) != 0 || len(f.groups.groups) != 0 {
		t.Error("unreachable step must not save anything")
	}

	f.save(t, StepDetails, `{"name":"Club"}`)
	show, err := f.svc.Show(context.Background(), creator, f.tokens, StepInvites)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if show.Step != StepSettings || !show.Redirected {
		t.Errorf("Show(invites) = %+v, want settings", show)
	}
}

func TestWizardRejectsBadInput(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Save(ctx, creator, f.tokens, StepDetails, json.RawMessage(`{"name":""}`)); !errors.Is(err, ErrInvalidForm) {
		t.Errorf("empty name error = %v, want ErrInvalidForm", err)
	}
	if _, err := f.svc.Save(ctx, creator, f.tokens, StepDetails, json.RawMessage(`[1,2]`)); !errors.Is(err, ErrInvalidForm) {
		t.Errorf("malformed body error = %v, want ErrInvalidForm", err)
	}
	if _, err := f.svc.Save(ctx, creator, f.tokens, "nope", nil); !errors.Is(err, ErrUnknownStep) {
		t.Errorf("unknown step error = %v, want ErrUnknownStep", err)
	}
	if _, err := f.svc.Save(ctx, actor.Actor{}, f.tokens, StepDetails, nil); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous error = %v, want ErrUnauthenticated", err)
	}

	f.save(t, StepDetails, `{"name":"Club"}`)
	if _, err := f.svc.Save(ctx, creator, f.tokens, StepSettings, json.RawMessage(`{"status":"secret","invite_status":"mods"}`)); !errors.Is(err, ErrInvalidForm) {
		t.Errorf("bad status error = %v, want ErrInvalidForm", err)
	}
}

func TestWizardRestartsWhenGroupIsLost(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *wizardFixture)
	}{
		{"group deleted", func(f *wizardFixture) { delete(f.groups.groups, 1) }},
		{"no longer managed", func(f *wizardFixture) { f.groups.groups[1].CreatorID = 42 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWizardFixture(t)
			f.save(t, StepDetails, `{"name":"Club"}`)
			tt.setup(f)

			p, err := f.svc.Show(context.Background(), creator, f.tokens, StepSettings)
			if err != nil {
				t.Fatalf("Show: %v", err)
			}
			if p.Step != StepDetails || p.GroupID != 0 {
				t.Errorf("progress = %+v, want restart", p)
			}
		})
	}
}

func TestWizardRegisteredStepsJoinSequence(t *testing.T) {
	f := newWizardFixture(t)
	var saw int64
	err := f.svc.Registry().Register(Step{
		Slug:     "group-avatar",
		Name:     "Avatar",
		Position: 10,
		Save: func(_ context.Context, in Input) (int64, error) {
			saw = in.GroupID
			return 0, nil
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	f.save(t, StepDetails, `{"name":"Club"}`)
	p := f.save(t, StepSettings, `{"status":"public","invite_status":"members"}`)
	if p.Step != "group-avatar" {
		t.Fatalf("after settings: step %q, want group-avatar", p.Step)
	}
	p = f.save(t, "group-avatar", `{}`)
	if p.Step != StepInvites || saw != 1 {
		t.Errorf("after avatar: step %q, saw group %d", p.Step, saw)
	}
}

func TestWizardRestart(t *testing.T) {
	f := newWizardFixture(t)
	f.save(t, StepDetails, `{"name":"Club"}`)

	f.svc.Restart(f.tokens)
	p, err := f.svc.Show(context.Background(), creator, f.tokens, "")
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if p.Step != StepDetails || p.GroupID != 0 {
		t.Errorf("progress = %+v", p)
	}
	if _, ok := f.groups.groups[1]; !ok {
		t.Error("restart should keep the draft group")
	}
}
