package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/ulid"
)

func newTestPost(author uuid.UUID, title string, at time.Time) *models.Post {
	at = at.UTC().Truncate(time.Millisecond)
	return &models.Post{
		ID:        ulid.NewFromTime(at),
		AuthorID:  author,
		Title:     title,
		Content:   "content of " + title,
		Likes:     []uuid.UUID{},
		Comments:  []models.Comment{},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// testPostRepository exercises behavior every PostRepository backend must share.
// The repository must start empty.
func testPostRepository(t *testing.T, repo PostRepository) {
	ctx := context.Background()
	author := uuid.New()
	base := time.Now().Add(-time.Hour)

	first := newTestPost(author, "first", base)
	second := newTestPost(author, "second", base.Add(time.Minute))
	third := newTestPost(uuid.New(), "third", base.Add(2*time.Minute))
	for _, p := range []*models.Post{first, second, third} {
		require.NoError(t, repo.Create(ctx, p))
	}

	t.Run("GetByID miss returns nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, ulid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("List orders newest first and pages", func(t *testing.T) {
		page1, err := repo.List(ctx, 0, 2)
		require.NoError(t, err)
		require.Len(t, page1, 2)
		assert.Equal(t, third.ID, page1[0].ID)
		assert.Equal(t, second.ID, page1[1].ID)

		page2, err := repo.List(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page2, 1)
		assert.Equal(t, first.ID, page2[0].ID)

		beyond, err := repo.List(ctx, 10, 2)
		require.NoError(t, err)
		assert.Empty(t, beyond)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})

	t.Run("Update changes only title and content", func(t *testing.T) {
		liker := uuid.New()
		_, err := repo.SetLike(ctx, first.ID, liker, true)
		require.NoError(t, err)

		require.NoError(t, repo.Update(ctx, first.ID, "renamed", "new body"))

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "renamed", got.Title)
		assert.Equal(t, "new body", got.Content)
		assert.Equal(t, author, got.AuthorID)
		assert.Equal(t, []uuid.UUID{liker}, got.Likes)

		_, err = repo.SetLike(ctx, first.ID, liker, false)
		require.NoError(t, err)
	})

	t.Run("Update and Delete of missing post", func(t *testing.T) {
		missing := ulid.New()
		assert.ErrorIs(t, repo.Update(ctx, missing, "t", "c"), ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, missing), ErrNotFound)
		assert.ErrorIs(t, repo.AddComment(ctx, missing, &models.Comment{ID: ulid.New(), AuthorID: author, Text: "x"}), ErrNotFound)
		_, err := repo.SetLike(ctx, missing, author, true)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SetLike has set semantics", func(t *testing.T) {
		user := uuid.New()

		p, err := repo.SetLike(ctx, second.ID, user, true)
		require.NoError(t, err)
		assert.True(t, p.LikedBy(user))
		assert.Equal(t, 1, p.LikeCount())

		p, err = repo.SetLike(ctx, second.ID, user, true)
		require.NoError(t, err)
		assert.Equal(t, 1, p.LikeCount())

		p, err = repo.SetLike(ctx, second.ID, user, false)
		require.NoError(t, err)
		assert.False(t, p.LikedBy(user))
		assert.Equal(t, 0, p.LikeCount())
	})

	t.Run("AddComment appends in order", func(t *testing.T) {
		commenter := uuid.New()
		for _, text := range []string{"one", "two"} {
			c := &models.Comment{
				ID:        ulid.New(),
				AuthorID:  commenter,
				Text:      text,
				CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
			}
			require.NoError(t, repo.AddComment(ctx, third.ID, c))
		}

		got, err := repo.GetByID(ctx, third.ID)
		require.NoError(t, err)
		require.Len(t, got.Comments, 2)
		assert.Equal(t, "one", got.Comments[0].Text)
		assert.Equal(t, "two", got.Comments[1].Text)
		assert.Equal(t, commenter, got.Comments[1].AuthorID)
	})

	t.Run("StatsByAuthor", func(t *testing.T) {
		_, err := repo.SetLike(ctx, second.ID, uuid.New(), true)
		require.NoError(t, err)
		_, err = repo.SetLike(ctx, first.ID, uuid.New(), true)
		require.NoError(t, err)

		stats, err := repo.StatsByAuthor(ctx, author)
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.PostCount)
		assert.EqualValues(t, 2, stats.LikeCount)

		empty, err := repo.StatsByAuthor(ctx, uuid.New())
		require.NoError(t, err)
		assert.Zero(t, empty.PostCount)
		assert.Zero(t, empty.LikeCount)
	})

	t.Run("Delete removes post", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, third.ID))
		got, err := repo.GetByID(ctx, third.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

// testUserRepository exercises behavior every UserRepository backend must share.
func testUserRepository(t *testing.T, repo UserRepository) {
	ctx := context.Background()

	alice := &models.User{GoogleID: "g-alice", DisplayName: "Alice", Email: "alice@example.com"}
	bob := &models.User{GoogleID: "g-bob", DisplayName: "Bob", Email: "bob@example.com"}
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))
	assert.NotEqual(t, uuid.Nil, alice.ID)

	t.Run("GetByGoogleID", func(t *testing.T) {
		got, err := repo.GetByGoogleID(ctx, "g-alice")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, alice.ID, got.ID)

		miss, err := repo.GetByGoogleID(ctx, "g-nobody")
		require.NoError(t, err)
		assert.Nil(t, miss)
	})

	t.Run("GetByIDs skips unknown ids", func(t *testing.T) {
		got, err := repo.GetByIDs(ctx, []uuid.UUID{alice.ID, bob.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "Bob", got[bob.ID].DisplayName)
	})

	t.Run("Update overwrites profile fields", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		alice.DisplayName = "Alice B."
		alice.Email = "alice@new.example.com"
		alice.PictureURL = "https://example.com/a.png"
		alice.LastLoginAt = &now
		require.NoError(t, repo.Update(ctx, alice))

		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice B.", got.DisplayName)
		assert.Equal(t, "alice@new.example.com", got.Email)
		assert.Equal(t, "https://example.com/a.png", got.PictureURL)
		require.NotNil(t, got.LastLoginAt)
		assert.WithinDuration(t, now, *got.LastLoginAt, time.Millisecond)
	})

	t.Run("Update of missing user", func(t *testing.T) {
		err := repo.Update(ctx, &models.User{ID: uuid.New(), DisplayName: "ghost"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

// testSessionRepository exercises behavior every SessionRepository backend must share.
func testSessionRepository(t *testing.T, repo SessionRepository) {
	ctx := context.Background()
	session := &models.Session{
		ID:        "sess-" + ulid.New(),
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, session.UserID, got.UserID)

	miss, err := repo.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, repo.Delete(ctx, session.ID))
	gone, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
