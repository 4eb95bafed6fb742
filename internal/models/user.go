package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account created through Google sign-in.
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	GoogleID    string     `json:"-" db:"google_id"`
	DisplayName string     `json:"display_name" db:"display_name"`
	Email       string     `json:"email" db:"email"`
	PictureURL  string     `json:"picture_url,omitempty" db:"picture_url"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Summary returns the display fields shown next to posts and comments.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		PictureURL:  u.PictureURL,
	}
}

// UserSummary is the author projection used by the feed.
type UserSummary struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	PictureURL  string    `json:"picture_url,omitempty"`
}

// UnknownAuthor is shown when a referenced user no longer resolves.
func UnknownAuthor(id uuid.UUID) UserSummary {
	return UserSummary{ID: id, DisplayName: "Unknown user"}
}

// Session represents an authenticated user session.
type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Principal is the authenticated identity attached to one request.
type Principal struct {
	UserID      uuid.UUID
	SessionID   string
	DisplayName string
	Email       string
	PictureURL  string
}

// NewPrincipal builds the principal for a resolved session.
func NewPrincipal(user *User, sessionID string) *Principal {
	return &Principal{
		UserID:      user.ID,
		SessionID:   sessionID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		PictureURL:  user.PictureURL,
	}
}
