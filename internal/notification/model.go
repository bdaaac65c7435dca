package notification

import "time"

// Notification represents a notification in the system
type Notification struct {
	ID                int64     `json:"id"`
	RecipientID       int64     `json:"recipient_id"`
	Kind              Kind      `json:"kind"`
	Message           string    `json:"message"`
	IsRead            bool      `json:"is_read"`
	RelatedEntityType *string   `json:"related_entity_type,omitempty"` // "group"
	RelatedEntityID   *int64    `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Kind represents the type of notification
type Kind string

const (
	KindGroupInvite       Kind = "group_invite"
	KindInviteAccepted    Kind = "group_invite_accepted"
	KindMembershipRequest Kind = "membership_request"
	KindRequestAccepted   Kind = "membership_request_accepted"
	KindRequestRejected   Kind = "membership_request_rejected"
	KindPromoted          Kind = "member_promoted"
)

// entityGroup is the related entity type of every group notification
const entityGroup = "group"
