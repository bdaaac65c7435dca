package user

import (
	"context"
	"errors"
	"testing"
)

type memStore struct {
	users map[int64]*User
}

func (m *memStore) Create(_ context.Context, req *CreateUserRequest) (*User, error) {
	for _, u := range m.users {
		if u.Email == req.Email || u.Username == req.Username {
			return nil, ErrAlreadyExists
		}
	}
	u := &User{ID: int64(len(m.users) + 1), Username: req.Username, Email: req.Email}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*User, error) {
	return m.users[id], nil
}

func (m *memStore) Exists(_ context.Context, id int64) (bool, error) {
	return m.users[id] != nil, nil
}

func (m *memStore) List(_ context.Context, _ string, _, _ int) ([]*User, int, error) {
	return nil, len(m.users), nil
}

func (m *memStore) Update(_ context.Context, id int64, req *UpdateUserRequest) (*User, error) {
	u := m.users[id]
	if u != nil && req.Username != nil {
		u.Username = *req.Username
	}
	return u, nil
}

func (m *memStore) SetSiteAdmin(_ context.Context, id int64, admin bool) (*User, error) {
	u := m.users[id]
	if u != nil {
		u.IsSiteAdmin = admin
	}
	return u, nil
}

func (m *memStore) Delete(_ context.Context, id int64) (bool, error) {
	_, ok := m.users[id]
	delete(m.users, id)
	return ok, nil
}

func TestResolveActor(t *testing.T) {
	store := &memStore{users: map[int64]*User{
		1: {ID: 1, Username: "root", IsSiteAdmin: true},
		2: {ID: 2, Username: "ann"},
	}}
	svc := NewService(store)

	tests := []struct {
		id        int64
		found     bool
		siteAdmin bool
	}{
		{id: 1, found: true, siteAdmin: true},
		{id: 2, found: true},
		{id: 3},
	}
	for _, tt := range tests {
		a, found, err := svc.ResolveActor(context.Background(), tt.id)
		if err != nil {
			t.Fatal(err)
		}
		if found != tt.found || a.SiteAdmin != tt.siteAdmin {
			t.Errorf("ResolveActor(%d) = %+v, %v", tt.id, a, found)
		}
		if found && a.UserID != tt.id {
			t.Errorf("UserID = %d, want %d", a.UserID, tt.id)
		}
	}
}

func TestCreateNormalizesEmail(t *testing.T) {
	svc := NewService(&memStore{users: map[int64]*User{}})

	u, err := svc.Create(context.Background(), &CreateUserRequest{Username: " ann ", Email: " Ann@Example.COM "})
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "ann@example.com" || u.Username != "ann" {
		t.Errorf("user = %+v", u)
	}
	if _, err := svc.Create(context.Background(), &CreateUserRequest{Username: "bob", Email: "ANN@example.com"}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestSetSiteAdmin(t *testing.T) {
	store := &memStore{users: map[int64]*User{1: {ID: 1, IsSiteAdmin: true}, 2: {ID: 2}}}
	svc := NewService(store)
	root, _, _ := svc.ResolveActor(context.Background(), 1)

	if _, err := svc.SetSiteAdmin(context.Background(), root, 1, false); !errors.Is(err, ErrSelfRevoke) {
		t.Errorf("self revoke err = %v", err)
	}
	u, err := svc.SetSiteAdmin(context.Background(), root, 2, true)
	if err != nil || !u.IsSiteAdmin {
		t.Errorf("grant = %+v, %v", u, err)
	}
	if _, err := svc.SetSiteAdmin(context.Background(), root, 9, true); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user err = %v", err)
	}
}
