// Package wizard drives the multi-step group creation flow.
//
// Steps are registered at integer positions and presented in ascending
// order. A step can only be saved once every step before it is complete.
// Progress lives in two client-side tokens so the flow survives across
// requests without server-side sessions.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/fkhayef/groups/internal/actor"
)

// ErrDuplicateStep is returned when a slug is registered twice
var ErrDuplicateStep = errors.New("wizard step already registered")

// Input is what a step receives when its form is submitted
type Input struct {
	Actor actor.Actor
	// GroupID is 0 until a step has created the group
	GroupID int64
	Body    json.RawMessage
}

// SaveFunc persists a step's form and returns the id of the group being
// created. Returning 0 keeps the current id.
type SaveFunc func(ctx context.Context, in Input) (int64, error)

// Step is one page of the creation wizard
type Step struct {
	Slug     string
	Name     string
	Position int
	// Save may be nil for informational steps
	Save SaveFunc
}

// SortSteps orders steps by position. Steps are placed in the given order;
// a step whose position is already taken moves to the next free position,
// so the first registered keeps the lower slot.
func SortSteps(steps []Step) []Step {
	taken := make(map[int]bool, len(steps))
	out := make([]Step, len(steps))
	for i, s := range steps {
		for taken[s.Position] {
			s.Position++
		}
		taken[s.Position] = true
		out[i] = s
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Registry holds the steps of the wizard. Other packages add their own steps
// with Register.
type Registry struct {
	mu    sync.RWMutex
	steps []Step
}

// NewRegistry creates a registry holding steps
func NewRegistry(steps ...Step) (*Registry, error) {
	r := &Registry{}
	for _, s := range steps {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a step
func (r *Registry) Register(s Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.steps {
		if existing.Slug == s.Slug {
			return ErrDuplicateStep
		}
	}
	r.steps = append(r.steps, s)
	return nil
}

// Steps returns the registered steps in presentation order
func (r *Registry) Steps() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return SortSteps(r.steps)
}
