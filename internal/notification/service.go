package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/event"
	"github.com/fkhayef/groups/internal/group"
	"github.com/fkhayef/groups/internal/user"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// GroupReader loads groups for notification text
type GroupReader interface {
	GetByID(ctx context.Context, id int64) (*group.Group, error)
}

// UserReader loads users for notification text
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Service handles notification business logic
type Service struct {
	repo   Store
	groups GroupReader
	users  UserReader
	log    *zap.Logger
}

// NewService creates a new notification service
func NewService(repo Store, groups GroupReader, users UserReader, log *zap.Logger) *Service {
	return &Service{repo: repo, groups: groups, users: users, log: log}
}

// Subscribe hooks the service up to membership events
func (s *Service) Subscribe(bus *event.Bus) {
	bus.Subscribe(s.onInviteSent, event.InviteSent)
	bus.Subscribe(s.onInviteAccepted, event.InviteAccepted)
	bus.Subscribe(s.onRequested, event.MembershipRequested)
	bus.Subscribe(s.onRequestDecided, event.MembershipRequestAccepted, event.MembershipRequestRejected)
	bus.Subscribe(s.onPromoted, event.MemberPromoted)
}

func (s *Service) onInviteSent(ctx context.Context, e event.Event) error {
	name, err := s.groupName(ctx, e.GroupID)
	if err != nil {
		return err
	}
	msg := "You have been invited to join " + name
	if e.Comment != "" {
		msg += ": " + e.Comment
	}
	return s.notify(ctx, e.UserID, KindGroupInvite, msg, e.GroupID)
}

func (s *Service) onInviteAccepted(ctx context.Context, e event.Event) error {
	name, err := s.groupName(ctx, e.GroupID)
	if err != nil {
		return err
	}
	who, err := s.username(ctx, e.UserID)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("%s accepted your invitation to join %s", who, name)
	for _, id := range e.Recipients {
		if err := s.notify(ctx, id, KindInviteAccepted, msg, e.GroupID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) onRequested(ctx context.Context, e event.Event) error {
	name, err := s.groupName(ctx, e.GroupID)
	if err != nil {
		return err
	}
	who, err := s.username(ctx, e.UserID)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("%s asked to join %s", who, name)
	for _, id := range e.Recipients {
		if err := s.notify(ctx, id, KindMembershipRequest, msg, e.GroupID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) onRequestDecided(ctx context.Context, e event.Event) error {
	name, err := s.groupName(ctx, e.GroupID)
	if err != nil {
		return err
	}
	kind, msg := KindRequestAccepted, "Your request to join "+name+" was accepted"
	if e.Name == event.MembershipRequestRejected {
		kind, msg = KindRequestRejected, "Your request to join "+name+" was declined"
	}
	return s.notify(ctx, e.UserID, kind, msg, e.GroupID)
}

// onPromoted replaces any earlier promotion notice for the same group
func (s *Service) onPromoted(ctx context.Context, e event.Event) error {
	name, err := s.groupName(ctx, e.GroupID)
	if err != nil {
		return err
	}
	if _, err := s.repo.DeleteForGroup(ctx, e.UserID, e.GroupID, KindPromoted); err != nil {
		return err
	}
	role := "moderator"
	if e.Role == "admin" {
		role = "administrator"
	}
	return s.notify(ctx, e.UserID, KindPromoted, fmt.Sprintf("You were promoted to %s in %s", role, name), e.GroupID)
}

func (s *Service) notify(ctx context.Context, recipientID int64, kind Kind, message string, groupID int64) error {
	if recipientID == 0 {
		return nil
	}
	entityType := entityGroup
	n := &Notification{
		RecipientID:       recipientID,
		Kind:              kind,
		Message:           message,
		RelatedEntityType: &entityType,
		RelatedEntityID:   &groupID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.log.Debug("notification created",
		zap.Int64("recipient_id", recipientID),
		zap.String("kind", string(kind)),
		zap.Int64("group_id", groupID))
	return nil
}

func (s *Service) groupName(ctx context.Context, id int64) (string, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if g == nil {
		return "a group", nil
	}
	return g.Name, nil
}

func (s *Service) username(ctx context.Context, id int64) (string, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "Someone", nil
	}
	return u.Username, nil
}

// GetByID retrieves a notification by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Notification, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// ListByRecipientID retrieves all notifications for a user
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	notification, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if notification.RecipientID != userID {
		return ErrNotRecipient
	}
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}
