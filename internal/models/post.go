package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Post is a blog post with its likes and comments embedded.
type Post struct {
	ID        string      `json:"id"`
	AuthorID  uuid.UUID   `json:"author_id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Likes     []uuid.UUID `json:"likes"`
	Comments  []Comment   `json:"comments"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Comment is a reply embedded in a post.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// LikedBy reports whether userID is in the post's likes.
func (p *Post) LikedBy(userID uuid.UUID) bool {
	return slices.Contains(p.Likes, userID)
}

// LikeCount returns the number of distinct users who like the post.
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// AuthorIDs returns the post author followed by every comment author, without duplicates.
func (p *Post) AuthorIDs() []uuid.UUID {
	ids := []uuid.UUID{p.AuthorID}
	for _, c := range p.Comments {
		if !slices.Contains(ids, c.AuthorID) {
			ids = append(ids, c.AuthorID)
		}
	}
	return ids
}

// AuthorStats aggregates a user's posts for the profile page.
type AuthorStats struct {
	PostCount int64 `json:"post_count"`
	LikeCount int64 `json:"like_count"`
}
