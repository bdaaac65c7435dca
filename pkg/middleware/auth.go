package middleware

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/pkg/response"
)

// UserHeader carries the authenticated user id, set by the fronting auth proxy
const UserHeader = "X-User-ID"

// ActorResolver turns a user id into an actor with its site-wide flags
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID int64) (actor.Actor, bool, error)
}

// Authenticate attaches the actor named by UserHeader to the request context.
// Requests without the header continue anonymously.
func Authenticate(resolver ActorResolver, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(UserHeader)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID <= 0 {
				response.Unauthorized(w, "Invalid user header")
				return
			}

			a, found, err := resolver.ResolveActor(r.Context(), userID)
			if err != nil {
				log.Error("resolve actor", zap.Int64("user_id", userID), zap.Error(err))
				response.InternalError(w, "Failed to authenticate")
				return
			}
			if !found {
				response.Unauthorized(w, "Unknown user")
				return
			}

			next.ServeHTTP(w, r.WithContext(actor.WithContext(r.Context(), a)))
		})
	}
}

// RequireActor rejects anonymous requests
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := actor.FromContext(r.Context()); !ok {
			response.Unauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSiteAdmin rejects everyone but site administrators
func RequireSiteAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := actor.FromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "Authentication required")
			return
		}
		if !a.SiteAdmin {
			response.Forbidden(w, "Site administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetActor returns the request's actor; the zero Actor when anonymous
func GetActor(ctx context.Context) actor.Actor {
	a, _ := actor.FromContext(ctx)
	return a
}
