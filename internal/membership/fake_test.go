package membership

import (
	"context"
	"sort"
	"time"

	"github.com/fkhayef/groups/internal/group"
)

// memStore is an in-memory Store. WithinTx snapshots the rows and restores
// them when fn fails.
type memStore struct {
	rows   map[[2]int64]*Membership // key: group id, user id
	nextID int64
	locks  []int64
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[[2]int64]*Membership)}
}

func (s *memStore) put(m Membership) *Membership {
	s.nextID++
	m.ID = s.nextID
	if m.Role == "" {
		m.Role = RoleMember
	}
	m.DateModified = time.Now()
	s.rows[[2]int64{m.GroupID, m.UserID}] = &m
	return &m
}

func (s *memStore) get(groupID, userID int64) *Membership {
	m, ok := s.rows[[2]int64{groupID, userID}]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

func (s *memStore) count(groupID int64) int {
	n := 0
	for k := range s.rows {
		if k[0] == groupID {
			n++
		}
	}
	return n
}

func (s *memStore) Create(_ context.Context, m *Membership) error {
	if _, ok := s.rows[[2]int64{m.GroupID, m.UserID}]; ok {
		return ErrDuplicateMembership
	}
	created := s.put(*m)
	m.ID, m.DateModified = created.ID, created.DateModified
	return nil
}

func (s *memStore) Update(_ context.Context, m *Membership) error {
	key := [2]int64{m.GroupID, m.UserID}
	cur, ok := s.rows[key]
	if !ok || cur.ID != m.ID {
		return ErrMembershipNotFound
	}
	cp := *m
	cp.DateModified = time.Now()
	s.rows[key] = &cp
	return nil
}

func (s *memStore) Delete(_ context.Context, groupID, userID int64) (bool, error) {
	key := [2]int64{groupID, userID}
	_, ok := s.rows[key]
	delete(s.rows, key)
	return ok, nil
}

func (s *memStore) Find(_ context.Context, groupID, userID int64) (*Membership, error) {
	return s.get(groupID, userID), nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (*Membership, error) {
	for _, m := range s.rows {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) CountConfirmedAdmins(ctx context.Context, groupID int64) (int, error) {
	ids, _ := s.ListAdminIDs(ctx, groupID)
	return len(ids), nil
}

func (s *memStore) ListAdminIDs(_ context.Context, groupID int64) ([]int64, error) {
	var ids []int64
	for _, m := range s.sorted() {
		if m.GroupID == groupID && m.IsConfirmedAdmin() {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (s *memStore) ListPendingRequests(_ context.Context, groupID int64) ([]*Membership, error) {
	return s.filter(func(m *Membership) bool { return m.GroupID == groupID && m.IsRequest() }), nil
}

func (s *memStore) ListUnsentInvites(_ context.Context, inviterID, groupID int64) ([]*Membership, error) {
	return s.filter(func(m *Membership) bool {
		return m.GroupID == groupID && m.IsInvite() && m.InviterID == inviterID && !m.InviteSent
	}), nil
}

func (s *memStore) ListInvitesForUser(_ context.Context, userID int64) ([]*Membership, error) {
	return s.filter(func(m *Membership) bool { return m.UserID == userID && m.IsInvite() && m.InviteSent }), nil
}

func (s *memStore) ListMembers(_ context.Context, groupID int64, f MemberFilter, limit, offset int) ([]*Membership, int, error) {
	all := s.filter(func(m *Membership) bool {
		if m.GroupID != groupID || !m.IsConfirmed {
			return false
		}
		if f.OnlyBanned && !m.IsBanned || !f.OnlyBanned && !f.IncludeBanned && m.IsBanned {
			return false
		}
		if len(f.Roles) == 0 {
			return true
		}
		for _, r := range f.Roles {
			if m.Role == r {
				return true
			}
		}
		return false
	})
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *memStore) LockGroup(_ context.Context, groupID int64) error {
	s.locks = append(s.locks, groupID)
	return nil
}

func (s *memStore) WithinTx(_ context.Context, fn func(tx Store) error) error {
	snapshot := make(map[[2]int64]*Membership, len(s.rows))
	for k, v := range s.rows {
		cp := *v
		snapshot[k] = &cp
	}
	if err := fn(s); err != nil {
		s.rows = snapshot
		return err
	}
	return nil
}

func (s *memStore) sorted() []*Membership {
	out := make([]*Membership, 0, len(s.rows))
	for _, m := range s.rows {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) filter(keep func(m *Membership) bool) []*Membership {
	var out []*Membership
	for _, m := range s.sorted() {
		if keep(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

type fakeGroups map[int64]*group.Group

func (f fakeGroups) GetByID(_ context.Context, id int64) (*group.Group, error) {
	g, ok := f[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

type fakeUsers map[int64]bool

func (f fakeUsers) Exists(_ context.Context, id int64) (bool, error) {
	return f[id], nil
}
