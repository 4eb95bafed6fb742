// Package repository provides data access layer implementations.
//
// Lookups return (nil, nil) when the record does not exist. Mutations that
// address a missing record return ErrNotFound.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
)

// ErrNotFound is returned by mutations whose target record does not exist.
var ErrNotFound = errors.New("record not found")

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	// GetByIDs resolves many users in one round trip. Unknown ids are absent from the map.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// Update replaces title and content only. Author, likes and comments are untouched.
	Update(ctx context.Context, id, title, content string) error
	Delete(ctx context.Context, id string) error
	// List returns posts newest first, ties broken by id descending.
	List(ctx context.Context, offset, limit int) ([]*models.Post, error)
	Count(ctx context.Context) (int64, error)
	// SetLike adds or removes userID from the post's like set and returns the updated post.
	SetLike(ctx context.Context, id string, userID uuid.UUID, liked bool) (*models.Post, error)
	AddComment(ctx context.Context, id string, comment *models.Comment) error
	StatsByAuthor(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error)
}

// SessionRepository defines the interface for server-side session records.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// Get returns nil for unknown or expired sessions.
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}
