package user

import "time"

// User represents a user in the system
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	IsSiteAdmin bool      `json:"is_site_admin"`
	CreatedAt   time.Time `json:"created_at"`
}
