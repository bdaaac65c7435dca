// Package actor carries the acting user through a request explicitly.
package actor

import "context"

// Actor is the user on whose behalf an operation runs
type Actor struct {
	UserID    int64
	SiteAdmin bool
}

// IsZero reports whether no user is attached
func (a Actor) IsZero() bool {
	return a.UserID == 0
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying a
func WithContext(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext extracts the actor set by the auth middleware
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok && !a.IsZero()
}
