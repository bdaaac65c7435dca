package membership

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/pkg/middleware"
)

type resolverFunc func(id int64) (actor.Actor, bool)

func (f resolverFunc) ResolveActor(_ context.Context, id int64) (actor.Actor, bool, error) {
	a, ok := f(id)
	return a, ok, nil
}

func newTestRouter(f *fixture) http.Handler {
	h := NewHandler(f.engine, zap.NewNop())
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(resolverFunc(func(id int64) (actor.Actor, bool) {
		return actor.Actor{UserID: id}, id <= 10
	}), zap.NewNop()))
	r.Route("/groups/{id}", h.Register)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path string, userID int64, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(middleware.UserHeader, strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
	}
	return rec.Code, env
}

func TestHandlerStatusMapping(t *testing.T) {
	f := newFixture(t)
	f.admin(publicGroup, 1)
	f.member(publicGroup, 2, RoleMember)
	router := newTestRouter(f)

	tests := []struct {
		name     string
		method   string
		path     string
		userID   int64
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "anonymous join", method: http.MethodPost, path: "/groups/1/join", wantCode: http.StatusUnauthorized},
		{name: "sole admin demote", method: http.MethodPost, path: "/groups/1/members/1/demote", userID: 1, wantCode: http.StatusConflict, wantErr: "INVARIANT_VIOLATION"},
		{name: "member demotes admin", method: http.MethodPost, path: "/groups/1/members/1/demote", userID: 2, wantCode: http.StatusForbidden},
		{name: "demote plain member", method: http.MethodPost, path: "/groups/1/members/2/demote", userID: 1, wantCode: http.StatusConflict, wantErr: "CONFLICT"},
		{name: "missing group", method: http.MethodPost, path: "/groups/99/join", userID: 3, wantCode: http.StatusNotFound},
		{name: "bad group id", method: http.MethodPost, path: "/groups/abc/join", userID: 3, wantCode: http.StatusBadRequest},
		{name: "invalid promote role", method: http.MethodPost, path: "/groups/1/members/2/promote", userID: 1, body: `{"role":"owner"}`, wantCode: http.StatusUnprocessableEntity},
		{name: "unknown user header", method: http.MethodPost, path: "/groups/1/join", userID: 50, wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, router, tt.method, tt.path, tt.userID, tt.body)
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d", code, tt.wantCode)
			}
			if env.Success {
				t.Error("success should be false")
			}
			if tt.wantErr != "" && (env.Error == nil || env.Error.Code != tt.wantErr) {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantErr)
			}
		})
	}
}

func TestHandlerJoinReportsOutcome(t *testing.T) {
	f := newFixture(t)
	f.admin(publicGroup, 1)
	router := newTestRouter(f)

	for _, want := range []string{"created", "unchanged"} {
		code, env := do(t, router, http.MethodPost, "/groups/1/join", 3, "")
		if code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		var out OutcomeResponse
		if err := json.Unmarshal(env.Data, &out); err != nil {
			t.Fatal(err)
		}
		if out.Outcome.String() != want {
			t.Errorf("outcome = %v, want %s", out.Outcome, want)
		}
	}
}

func TestHandlerInviteAndSend(t *testing.T) {
	f := newFixture(t)
	f.admin(publicGroup, 1)
	f.member(publicGroup, 2, RoleMember)
	router := newTestRouter(f)

	code, env := do(t, router, http.MethodPost, "/groups/1/invites", 1, `{"user_ids":[2,3,99],"message":"hello","send":true}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var resp InviteResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 3 || resp.Sent != 1 {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Results[2].Error == "" {
		t.Errorf("unknown user should report an error: %+v", resp.Results[2])
	}
	if m := f.store.get(publicGroup, 3); m == nil || !m.InviteSent {
		t.Errorf("invite row = %+v", m)
	}
}
