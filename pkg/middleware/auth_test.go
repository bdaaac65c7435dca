package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/actor"
)

type fakeResolver map[int64]actor.Actor

func (f fakeResolver) ResolveActor(_ context.Context, id int64) (actor.Actor, bool, error) {
	if id == 99 {
		return actor.Actor{}, false, errors.New("db down")
	}
	a, ok := f[id]
	return a, ok, nil
}

func TestAuthenticate(t *testing.T) {
	resolver := fakeResolver{1: {UserID: 1}, 2: {UserID: 2, SiteAdmin: true}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantActor  actor.Actor
	}{
		{name: "anonymous", wantStatus: http.StatusOK},
		{name: "member", header: "1", wantStatus: http.StatusOK, wantActor: actor.Actor{UserID: 1}},
		{name: "site admin", header: "2", wantStatus: http.StatusOK, wantActor: actor.Actor{UserID: 2, SiteAdmin: true}},
		{name: "garbage", header: "abc", wantStatus: http.StatusUnauthorized},
		{name: "unknown", header: "7", wantStatus: http.StatusUnauthorized},
		{name: "resolver error", header: "99", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got actor.Actor
			h := Authenticate(resolver, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetActor(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(UserHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got != tt.wantActor {
				t.Errorf("actor = %+v, want %+v", got, tt.wantActor)
			}
		})
	}
}

func TestRequireSiteAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireSiteAdmin(ok)

	tests := []struct {
		name string
		a    *actor.Actor
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"member", &actor.Actor{UserID: 1}, http.StatusForbidden},
		{"admin", &actor.Actor{UserID: 2, SiteAdmin: true}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.a != nil {
				req = req.WithContext(actor.WithContext(req.Context(), *tt.a))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
