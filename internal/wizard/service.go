package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/internal/membership"
)

var (
	ErrUnknownStep     = errors.New("unknown group creation step")
	ErrNoGroup         = errors.New("group details must be saved first")
	ErrUnauthenticated = errors.New("login required")
)

// Manager reports whether an actor administers a group
type Manager interface {
	CanManage(ctx context.Context, a actor.Actor, groupID int64) (bool, error)
}

// Service runs the group creation wizard for one actor at a time
type Service struct {
	steps  *Registry
	groups Groups
	access Manager
	ttl    time.Duration
	log    *zap.Logger
}

// NewService creates a wizard service over the registered steps
func NewService(steps *Registry, groups Groups, access Manager, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{steps: steps, groups: groups, access: access, ttl: ttl, log: log}
}

// Registry exposes the step registry so other packages can add steps
func (s *Service) Registry() *Registry { return s.steps }

// Show resolves which step the actor should see
func (s *Service) Show(ctx context.Context, a actor.Actor, tokens TokenStore, requested string) (*Progress, error) {
	seq, err := s.load(ctx, a, tokens)
	if err != nil {
		return nil, err
	}
	slug, redirected := seq.Resolve(requested)
	return progress(seq, slug, redirected), nil
}

// Save stores the form of one step and moves to the next. Submitting a
// step whose predecessors are incomplete changes nothing and points back to
// the first incomplete step.
func (s *Service) Save(ctx context.Context, a actor.Actor, tokens TokenStore, slug string, body json.RawMessage) (*Progress, error) {
	seq, err := s.load(ctx, a, tokens)
	if err != nil {
		return nil, err
	}
	step, ok := seq.Step(slug)
	if !ok {
		return nil, ErrUnknownStep
	}
	if !seq.IsReachable(slug) {
		resolved, _ := seq.Resolve(slug)
		return progress(seq, resolved, true), nil
	}

	if step.Save != nil {
		id, err := step.Save(ctx, Input{Actor: a, GroupID: seq.GroupID(), Body: body})
		if err != nil {
			return nil, err
		}
		if id != 0 {
			seq.SetGroupID(id)
		}
	}

	groupID := seq.GroupID()
	next, done, err := seq.Advance(ctx, slug)
	if err != nil {
		return nil, err
	}
	if done {
		return &Progress{GroupID: groupID, Done: true}, nil
	}
	return progress(seq, next, false), nil
}

// Restart abandons the wizard. A group already created stays as a draft.
func (s *Service) Restart(tokens TokenStore) {
	NewSequencer(s.steps.Steps(), tokens, s.ttl, nil).Restart()
}

// load restores progress and restarts it when the group is gone or the
// actor no longer manages it
func (s *Service) load(ctx context.Context, a actor.Actor, tokens TokenStore) (*Sequencer, error) {
	if a.IsZero() {
		return nil, ErrUnauthenticated
	}

	seq := NewSequencer(s.steps.Steps(), tokens, s.ttl, s.finisher(a))
	if id := seq.GroupID(); id != 0 {
		ok, err := s.access.CanManage(ctx, a, id)
		if err != nil && membership.KindOf(err) == membership.KindInternal {
			return nil, err
		}
		if !ok {
			s.log.Info("restarting group creation",
				zap.Int64("group_id", id),
				zap.Int64("user_id", a.UserID))
			seq.Restart()
		}
	}
	return seq, nil
}

func (s *Service) finisher(a actor.Actor) FinishFunc {
	return func(ctx context.Context, groupID int64) error {
		if groupID == 0 {
			return ErrNoGroup
		}
		g, err := s.groups.Get(ctx, a, groupID)
		if err != nil {
			return err
		}
		s.groups.Announce(ctx, a, g)
		s.log.Info("group creation finished",
			zap.Int64("group_id", groupID),
			zap.Int64("user_id", a.UserID))
		return nil
	}
}
