package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
)

// MemoryUserRepository keeps users in process memory.
type MemoryUserRepository struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	byGoogle map[string]uuid.UUID
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:    make(map[uuid.UUID]*models.User),
		byGoogle: make(map[string]uuid.UUID),
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.users[user.ID] = &stored
	r.byGoogle[user.GoogleID] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	r.mu.RLock()
	id, ok := r.byGoogle[googleID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[uuid.UUID]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			result[id] = &cp
		}
	}
	return result, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	existing.DisplayName = user.DisplayName
	existing.Email = user.Email
	existing.PictureURL = user.PictureURL
	existing.LastLoginAt = user.LastLoginAt
	existing.UpdatedAt = user.UpdatedAt
	return nil
}

// MemoryPostRepository keeps posts in process memory.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[string]*models.Post
}

// NewMemoryPostRepository creates an empty in-memory post repository.
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: make(map[string]*models.Post)}
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Likes = slices.Clone(p.Likes)
	cp.Comments = slices.Clone(p.Comments)
	return &cp
}

func (r *MemoryPostRepository) Create(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *MemoryPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (r *MemoryPostRepository) Update(ctx context.Context, id, title, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return ErrNotFound
	}
	p.Title = title
	p.Content = content
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryPostRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *MemoryPostRepository) List(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	r.mu.RLock()
	all := make([]*models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		all = append(all, clonePost(p))
	}
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b *models.Post) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	if offset < 0 || limit <= 0 || offset >= len(all) {
		return []*models.Post{}, nil
	}
	end := offset + min(limit, len(all)-offset)
	return all[offset:end], nil
}

func (r *MemoryPostRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.posts)), nil
}

func (r *MemoryPostRepository) SetLike(ctx context.Context, id string, userID uuid.UUID, liked bool) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	has := slices.Contains(p.Likes, userID)
	switch {
	case liked && !has:
		p.Likes = append(p.Likes, userID)
	case !liked && has:
		p.Likes = slices.DeleteFunc(p.Likes, func(u uuid.UUID) bool { return u == userID })
	}
	return clonePost(p), nil
}

func (r *MemoryPostRepository) AddComment(ctx context.Context, id string, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return ErrNotFound
	}
	p.Comments = append(p.Comments, *comment)
	return nil
}

func (r *MemoryPostRepository) StatsByAuthor(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &models.AuthorStats{}
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			stats.PostCount++
			stats.LikeCount += int64(len(p.Likes))
		}
	}
	return stats, nil
}

// MemorySessionRepository keeps sessions in process memory.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

// NewMemorySessionRepository creates an empty in-memory session repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

func (r *MemorySessionRepository) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.Expired(r.now()) {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

var (
	_ UserRepository    = (*MemoryUserRepository)(nil)
	_ PostRepository    = (*MemoryPostRepository)(nil)
	_ SessionRepository = (*MemorySessionRepository)(nil)
)
