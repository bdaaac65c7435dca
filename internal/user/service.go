package user

import (
	"context"
	"errors"
	"strings"

	"github.com/fkhayef/groups/internal/actor"
)

// Common errors
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyExists = errors.New("username or email already in use")
	ErrSelfRevoke    = errors.New("cannot revoke your own site administration")
)

// Service handles user business logic
type Service struct {
	repo Store
}

// NewService creates a new user service with repository dependency injected
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Create creates a new user
func (s *Service) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	return s.repo.Create(ctx, req)
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Exists reports whether the user exists
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// ResolveActor loads the actor for an authenticated user id
func (s *Service) ResolveActor(ctx context.Context, id int64) (actor.Actor, bool, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil || user == nil {
		return actor.Actor{}, false, err
	}
	return actor.Actor{UserID: user.ID, SiteAdmin: user.IsSiteAdmin}, true, nil
}

// List retrieves users with pagination
func (s *Service) List(ctx context.Context, search string, page, perPage int) ([]*User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, strings.TrimSpace(search), perPage, offset)
}

// Update modifies an existing user
func (s *Service) Update(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error) {
	user, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetSiteAdmin grants or revokes site administration. Admins cannot revoke
// their own flag.
func (s *Service) SetSiteAdmin(ctx context.Context, a actor.Actor, id int64, admin bool) (*User, error) {
	if a.UserID == id && !admin {
		return nil, ErrSelfRevoke
	}
	user, err := s.repo.SetSiteAdmin(ctx, id, admin)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Delete removes a user
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}
