package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/repository"
)

// MockPostRepository is a mock implementation of PostRepository for testing.
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, id, title, content string) error {
	args := m.Called(ctx, id, title, content)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPostRepository) List(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) SetLike(ctx context.Context, id string, userID uuid.UUID, liked bool) (*models.Post, error) {
	args := m.Called(ctx, id, userID, liked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) AddComment(ctx context.Context, id string, comment *models.Comment) error {
	args := m.Called(ctx, id, comment)
	return args.Error(0)
}

func (m *MockPostRepository) StatsByAuthor(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthorStats), args.Error(1)
}

var _ repository.PostRepository = (*MockPostRepository)(nil)

// countingUserRepo records how often the batched lookup runs.
type countingUserRepo struct {
	*repository.MemoryUserRepository
	batchCalls int
}

func (r *countingUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	r.batchCalls++
	return r.MemoryUserRepository.GetByIDs(ctx, ids)
}

// failingSessionRepo fails every call with err.
type failingSessionRepo struct {
	err error
}

func (r *failingSessionRepo) Create(ctx context.Context, session *models.Session) error { return r.err }

func (r *failingSessionRepo) Get(ctx context.Context, id string) (*models.Session, error) {
	return nil, r.err
}

func (r *failingSessionRepo) Delete(ctx context.Context, id string) error { return r.err }

func newTestUser(t *testing.T, repo repository.UserRepository, name string) *models.User {
	t.Helper()
	u := &models.User{GoogleID: "g-" + name, DisplayName: name, Email: name + "@example.com"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func principalFor(u *models.User) *models.Principal {
	return models.NewPrincipal(u, "test-session")
}
