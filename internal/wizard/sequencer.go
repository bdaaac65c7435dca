package wizard

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Token names carrying wizard progress between requests
const (
	TokenGroupID   = "group_create_id"
	TokenCompleted = "group_create_steps"
)

// FinishFunc runs once the last step is saved
type FinishFunc func(ctx context.Context, groupID int64) error

// Sequencer tracks progress through an ordered list of steps
type Sequencer struct {
	steps     []Step
	index     map[string]int
	completed map[string]bool
	groupID   int64
	current   string

	tokens TokenStore
	ttl    time.Duration
	finish FinishFunc
}

// NewSequencer builds a sequencer over steps already in presentation order
// and restores progress from tokens. Missing or malformed tokens start the
// wizard over from the first step.
func NewSequencer(steps []Step, tokens TokenStore, ttl time.Duration, finish FinishFunc) *Sequencer {
	s := &Sequencer{
		steps:     steps,
		index:     make(map[string]int, len(steps)),
		completed: make(map[string]bool),
		tokens:    tokens,
		ttl:       ttl,
		finish:    finish,
	}
	for i, st := range steps {
		s.index[st.Slug] = i
	}
	if !s.restore() {
		s.Restart()
	}
	return s
}

// restore reports false when the tokens exist but cannot be trusted
func (s *Sequencer) restore() bool {
	rawID, hasID := s.tokens.ReadToken(TokenGroupID)
	rawSteps, hasSteps := s.tokens.ReadToken(TokenCompleted)
	if !hasID && !hasSteps {
		return true
	}
	if !hasID || !hasSteps {
		return false
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id < 0 {
		return false
	}
	for _, slug := range strings.Split(rawSteps, ",") {
		if slug == "" {
			continue
		}
		if _, ok := s.index[slug]; !ok {
			return false
		}
		s.completed[slug] = true
	}
	if id == 0 && len(s.completed) > 0 {
		return false
	}
	s.groupID = id
	return true
}

// Restart forgets all progress
func (s *Sequencer) Restart() {
	s.groupID = 0
	s.current = ""
	s.completed = make(map[string]bool)
	s.tokens.ClearToken(TokenGroupID)
	s.tokens.ClearToken(TokenCompleted)
}

// Steps returns the steps in presentation order
func (s *Sequencer) Steps() []Step { return s.steps }

// Step returns the step with slug
func (s *Sequencer) Step(slug string) (Step, bool) {
	i, ok := s.index[slug]
	if !ok {
		return Step{}, false
	}
	return s.steps[i], true
}

// GroupID is the group being created, 0 before the first save
func (s *Sequencer) GroupID() int64 { return s.groupID }

// SetGroupID records the group created by a step
func (s *Sequencer) SetGroupID(id int64) { s.groupID = id }

// Current is the step last resolved for display
func (s *Sequencer) Current() string { return s.current }

// IsStepComplete reports whether every given step is complete
func (s *Sequencer) IsStepComplete(slugs ...string) bool {
	for _, slug := range slugs {
		if !s.completed[slug] {
			return false
		}
	}
	return true
}

// ArePreviousStepsComplete reports whether every step before slug is
// complete. The first step always qualifies.
func (s *Sequencer) ArePreviousStepsComplete(slug string) bool {
	i, ok := s.index[slug]
	if !ok {
		return false
	}
	for _, st := range s.steps[:i] {
		if !s.completed[st.Slug] {
			return false
		}
	}
	return true
}

// IsReachable reports whether slug may be shown: its predecessors are
// complete or it is already the step on display.
func (s *Sequencer) IsReachable(slug string) bool {
	return s.ArePreviousStepsComplete(slug) || (slug != "" && slug == s.current)
}

// FirstIncomplete returns the earliest step not yet complete, or the last
// step when all are.
func (s *Sequencer) FirstIncomplete() string {
	if len(s.steps) == 0 {
		return ""
	}
	for _, st := range s.steps {
		if !s.completed[st.Slug] {
			return st.Slug
		}
	}
	return s.steps[len(s.steps)-1].Slug
}

// Resolve picks the step to display for a requested slug. Unknown or
// unreachable steps fall back to the first incomplete one.
func (s *Sequencer) Resolve(requested string) (slug string, redirected bool) {
	slug = requested
	if _, ok := s.index[slug]; !ok || !s.IsReachable(slug) {
		slug = s.FirstIncomplete()
		redirected = requested != ""
	}
	s.current = slug
	return slug, redirected
}

// Advance marks current complete and returns the next step. After the last
// step the wizard is finalized: progress is cleared, the finish hook runs
// and done is true.
func (s *Sequencer) Advance(ctx context.Context, current string) (next string, done bool, err error) {
	i, ok := s.index[current]
	if !ok {
		return "", false, ErrUnknownStep
	}
	s.completed[current] = true

	if i == len(s.steps)-1 {
		groupID := s.groupID
		s.Restart()
		if s.finish != nil {
			if err := s.finish(ctx, groupID); err != nil {
				return "", true, err
			}
		}
		return "", true, nil
	}

	next = s.steps[i+1].Slug
	s.current = next
	return next, false, s.persist()
}

func (s *Sequencer) persist() error {
	done := make([]string, 0, len(s.completed))
	for _, st := range s.steps {
		if s.completed[st.Slug] {
			done = append(done, st.Slug)
		}
	}
	if err := s.tokens.WriteToken(TokenGroupID, strconv.FormatInt(s.groupID, 10), s.ttl); err != nil {
		return err
	}
	return s.tokens.WriteToken(TokenCompleted, strings.Join(done, ","), s.ttl)
}
