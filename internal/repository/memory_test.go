package repository

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
)

func TestMemoryPostRepository(t *testing.T) {
	testPostRepository(t, NewMemoryPostRepository())
}

func TestMemoryUserRepository(t *testing.T) {
	testUserRepository(t, NewMemoryUserRepository())
}

func TestMemorySessionRepository(t *testing.T) {
	testSessionRepository(t, NewMemorySessionRepository())
}

func TestMemorySessionRepository_Expired(t *testing.T) {
	repo := NewMemorySessionRepository()
	now := time.Now()
	repo.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Session{ID: "s1", UserID: uuid.New(), ExpiresAt: now.Add(time.Minute)}))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, got)

	repo.now = func() time.Time { return now.Add(2 * time.Minute) }
	got, err = repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryPostRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	p := newTestPost(uuid.New(), "title", time.Now())
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	got.Likes = append(got.Likes, uuid.New())

	again, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "title", again.Title)
	assert.Empty(t, again.Likes)
}

func TestMemoryPostRepository_ConcurrentLikesStayUnique(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	p := newTestPost(uuid.New(), "title", time.Now())
	require.NoError(t, repo.Create(ctx, p))

	user := uuid.New()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.SetLike(ctx, p.ID, user, true)
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount())
}

func TestMemoryPostRepository_ListTieBreaksOnID(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	at := time.Now()

	a := newTestPost(uuid.New(), "a", at)
	b := newTestPost(uuid.New(), "b", at)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	posts, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	// ULIDs from the same millisecond stay monotonic, so b sorts first.
	assert.Equal(t, b.ID, posts[0].ID)
	assert.Equal(t, a.ID, posts[1].ID)
}

func TestMemoryPostRepository_ListOutOfRange(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTestPost(uuid.New(), "only", time.Now())))

	tests := []struct {
		name   string
		offset int
		limit  int
	}{
		{name: "negative offset", offset: -10, limit: 10},
		{name: "past the end", offset: 5, limit: 10},
		{name: "huge limit near max int", offset: 0, limit: math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.offset, tt.limit)
			require.NoError(t, err)
			if tt.offset == 0 {
				assert.Len(t, got, 1)
				return
			}
			assert.Empty(t, got)
		})
	}
}
