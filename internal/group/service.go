package group

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/actor"
	"github.com/fkhayef/groups/internal/event"
)

// Common errors
var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrNotAuthorized   = errors.New("not authorized to perform this action")
	ErrUnauthenticated = errors.New("login required")
	ErrSlugTaken       = errors.New("group slug already in use")
	ErrInvalidName     = errors.New("group name is required")
	ErrInvalidStatus   = errors.New("invalid group status")
)

// Access answers membership questions the group service cannot answer itself
type Access interface {
	CanView(ctx context.Context, a actor.Actor, groupID int64) (bool, error)
	CanManage(ctx context.Context, a actor.Actor, groupID int64) (bool, error)
	AcceptAllPendingRequests(ctx context.Context, groupID int64) (int, error)
}

// Service handles group business logic
type Service struct {
	repo   Store
	access Access
	slugs  *Slugger
	events event.Emitter
	log    *zap.Logger

	strict *bluemonday.Policy
	ugc    *bluemonday.Policy
}

// NewService creates a new group service
func NewService(repo Store, access Access, slugs *Slugger, events event.Emitter, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		access: access,
		slugs:  slugs,
		events: events,
		log:    log,
		strict: bluemonday.StrictPolicy(),
		ugc:    bluemonday.UGCPolicy(),
	}
}

// Create creates a group with the actor as its first admin and announces it
func (s *Service) Create(ctx context.Context, a actor.Actor, req *CreateGroupRequest) (*Group, error) {
	g, err := s.CreateDraft(ctx, a, req)
	if err != nil {
		return nil, err
	}
	s.Announce(ctx, a, g)
	return g, nil
}

// CreateDraft stores the group without announcing it. The creation wizard
// announces once its last step is saved.
func (s *Service) CreateDraft(ctx context.Context, a actor.Actor, req *CreateGroupRequest) (*Group, error) {
	if a.IsZero() {
		return nil, ErrUnauthenticated
	}

	g := &Group{
		Name:         s.cleanName(req.Name),
		Description:  s.cleanDescription(req.Description),
		Status:       req.Status,
		InviteStatus: req.InviteStatus,
		EnableForum:  req.EnableForum,
		CreatorID:    a.UserID,
	}
	if g.Name == "" {
		return nil, ErrInvalidName
	}
	if g.Status == "" {
		g.Status = StatusPublic
	}
	if g.InviteStatus == "" {
		g.InviteStatus = InviteMembers
	}
	if !g.Status.Valid() || !g.InviteStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	// The unique index settles races between slug lookup and insert.
	for attempt := 0; ; attempt++ {
		slug, err := s.slugs.Unique(ctx, g.Name, s.repo.SlugExists)
		if err != nil {
			return nil, err
		}
		g.Slug = slug

		err = s.repo.Create(ctx, g)
		if errors.Is(err, ErrSlugTaken) && attempt < 3 {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	s.log.Info("group created",
		zap.Int64("group_id", g.ID),
		zap.String("slug", g.Slug),
		zap.Int64("creator_id", a.UserID))
	return g, nil
}

// Announce emits the group_created event
func (s *Service) Announce(ctx context.Context, a actor.Actor, g *Group) {
	s.events.Emit(ctx, event.Event{
		Name:    event.GroupCreated,
		GroupID: g.ID,
		UserID:  g.CreatorID,
		ActorID: a.UserID,
	})
}

// Get retrieves a group the actor is allowed to see
func (s *Service) Get(ctx context.Context, a actor.Actor, id int64) (*Group, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, a, g)
}

// GetBySlug retrieves a group by slug if the actor is allowed to see it
func (s *Service) GetBySlug(ctx context.Context, a actor.Actor, slug string) (*Group, error) {
	g, err := s.repo.GetBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, a, g)
}

// visible hides hidden groups from outsiders as if they did not exist
func (s *Service) visible(ctx context.Context, a actor.Actor, g *Group) (*Group, error) {
	if g == nil {
		return nil, ErrGroupNotFound
	}
	if g.Status != StatusHidden {
		return g, nil
	}
	ok, err := s.access.CanView(ctx, a, g.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// List returns the groups the actor may see, optionally filtered by search
func (s *Service) List(ctx context.Context, a actor.Actor, search string, page, perPage int) ([]*Group, int, error) {
	page, perPage = paging(page, perPage)
	return s.repo.List(ctx, ListFilter{
		Search:   search,
		ViewerID: a.UserID,
		All:      a.SiteAdmin,
		Limit:    perPage,
		Offset:   (page - 1) * perPage,
	})
}

// ListAll returns every group including hidden ones, for site admins
func (s *Service) ListAll(ctx context.Context, search string, page, perPage int) ([]*Group, int, error) {
	page, perPage = paging(page, perPage)
	return s.repo.List(ctx, ListFilter{
		Search: search,
		All:    true,
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
}

// ListForUser returns the groups the actor is an active member of
func (s *Service) ListForUser(ctx context.Context, a actor.Actor, page, perPage int) ([]*Group, int, error) {
	if a.IsZero() {
		return nil, 0, ErrUnauthenticated
	}
	page, perPage = paging(page, perPage)
	return s.repo.ListForUser(ctx, a.UserID, perPage, (page-1)*perPage)
}

// UpdateSettings changes a group's details and settings. Opening a private
// or hidden group to the public accepts every pending membership request.
func (s *Service) UpdateSettings(ctx context.Context, a actor.Actor, id int64, req *UpdateGroupRequest) (*Group, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	if err := s.requireManage(ctx, a, id); err != nil {
		return nil, err
	}

	previous := g.Status
	if req.Name != nil {
		if g.Name = s.cleanName(*req.Name); g.Name == "" {
			return nil, ErrInvalidName
		}
	}
	if req.Description != nil {
		g.Description = s.cleanDescription(*req.Description)
	}
	if req.Status != nil {
		g.Status = *req.Status
	}
	if req.InviteStatus != nil {
		g.InviteStatus = *req.InviteStatus
	}
	if req.EnableForum != nil {
		g.EnableForum = *req.EnableForum
	}
	if !g.Status.Valid() || !g.InviteStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}

	if previous != StatusPublic && g.Status == StatusPublic {
		n, err := s.access.AcceptAllPendingRequests(ctx, id)
		if err != nil {
			return nil, err
		}
		g.MemberCount += n
	}
	return g, nil
}

// Delete removes a group with everything attached to it
func (s *Service) Delete(ctx context.Context, a actor.Actor, id int64) error {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}
	if err := s.requireManage(ctx, a, id); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrGroupNotFound
	}

	s.log.Info("group deleted", zap.Int64("group_id", id), zap.Int64("actor_id", a.UserID))
	s.events.Emit(ctx, event.Event{Name: event.GroupDeleted, GroupID: id, ActorID: a.UserID})
	return nil
}

func (s *Service) requireManage(ctx context.Context, a actor.Actor, id int64) error {
	if a.IsZero() {
		return ErrUnauthenticated
	}
	if a.SiteAdmin {
		return nil
	}
	ok, err := s.access.CanManage(ctx, a, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

func (s *Service) cleanName(name string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(name)))
}

func (s *Service) cleanDescription(desc string) string {
	return strings.TrimSpace(s.ugc.Sanitize(desc))
}

func paging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
