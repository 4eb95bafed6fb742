package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
	apierrors "github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/errors"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/ulid"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/repository"
)

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title   string `validate:"required,max=200"`
	Content string `validate:"required,max=20000"`
}

type commentInput struct {
	Text string `validate:"required,max=2000"`
}

// LikeResult is the state of a post's likes after a toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// PostService defines post operations. Every call takes the acting principal explicitly.
type PostService interface {
	Create(ctx context.Context, principal *models.Principal, in PostInput) (*models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)

	// GetForEdit returns the post only if principal owns it.
	GetForEdit(ctx context.Context, principal *models.Principal, id string) (*models.Post, error)
	Update(ctx context.Context, principal *models.Principal, id string, in PostInput) error
	Delete(ctx context.Context, principal *models.Principal, id string) error

	// ToggleLike flips principal's membership in the post's likes.
	ToggleLike(ctx context.Context, principal *models.Principal, id string) (*LikeResult, error)
	AddComment(ctx context.Context, principal *models.Principal, id, text string) (*models.Comment, error)

	// Stats aggregates the principal's own posts.
	Stats(ctx context.Context, principal *models.Principal) (*models.AuthorStats, error)
}

type postService struct {
	postRepo repository.PostRepository
	validate *validator.Validate
	now      func() time.Time
}

// NewPostService creates a new post service.
func NewPostService(postRepo repository.PostRepository) PostService {
	return &postService{
		postRepo: postRepo,
		validate: newValidator(),
		now:      time.Now,
	}
}

func (s *postService) Create(ctx context.Context, principal *models.Principal, in PostInput) (*models.Post, error) {
	if principal == nil {
		return nil, apierrors.ErrUnauthorized
	}
	in = in.normalized()
	if err := s.check(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &models.Post{
		ID:        ulid.NewFromTime(now),
		AuthorID:  principal.UserID,
		Title:     in.Title,
		Content:   in.Content,
		Likes:     []uuid.UUID{},
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, apierrors.NewPersistenceError("create post", err)
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apierrors.NewNotFoundError("Post")
	}
	return post, nil
}

func (s *postService) GetForEdit(ctx context.Context, principal *models.Principal, id string) (*models.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(principal, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, principal *models.Principal, id string, in PostInput) error {
	post, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeMutation(principal, post); err != nil {
		return err
	}

	in = in.normalized()
	if err := s.check(in); err != nil {
		return err
	}
	return s.mutationErr("update post", s.postRepo.Update(ctx, id, in.Title, in.Content))
}

func (s *postService) Delete(ctx context.Context, principal *models.Principal, id string) error {
	post, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeMutation(principal, post); err != nil {
		return err
	}
	return s.mutationErr("delete post", s.postRepo.Delete(ctx, id))
}

func (s *postService) ToggleLike(ctx context.Context, principal *models.Principal, id string) (*LikeResult, error) {
	if principal == nil {
		return nil, apierrors.ErrUnauthorized
	}
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.postRepo.SetLike(ctx, id, principal.UserID, !post.LikedBy(principal.UserID))
	if err != nil {
		return nil, s.mutationErr("update likes", err)
	}
	return &LikeResult{
		Liked:     updated.LikedBy(principal.UserID),
		LikeCount: updated.LikeCount(),
	}, nil
}

func (s *postService) AddComment(ctx context.Context, principal *models.Principal, id, text string) (*models.Comment, error) {
	if principal == nil {
		return nil, apierrors.ErrUnauthorized
	}
	in := commentInput{Text: strings.TrimSpace(text)}
	if err := s.check(in); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	comment := &models.Comment{
		ID:        ulid.NewFromTime(now),
		AuthorID:  principal.UserID,
		Text:      in.Text,
		CreatedAt: now,
	}
	if err := s.postRepo.AddComment(ctx, id, comment); err != nil {
		return nil, s.mutationErr("add comment", err)
	}
	return comment, nil
}

func (s *postService) Stats(ctx context.Context, principal *models.Principal) (*models.AuthorStats, error) {
	if principal == nil {
		return nil, apierrors.ErrUnauthorized
	}
	stats, err := s.postRepo.StatsByAuthor(ctx, principal.UserID)
	if err != nil {
		return nil, apierrors.NewPersistenceError("load profile stats", err)
	}
	return stats, nil
}

// load fetches a post, treating malformed ids as absent.
func (s *postService) load(ctx context.Context, id string) (*models.Post, error) {
	if !ulid.IsValid(id) {
		return nil, nil
	}
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apierrors.NewPersistenceError("load post", err)
	}
	return post, nil
}

func (s *postService) mutationErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		// Deleted between load and write.
		return apierrors.NewNotFoundError("Post")
	default:
		return apierrors.NewPersistenceError(op, err)
	}
}

func (s *postService) check(v any) error {
	return validationError(s.validate.Struct(v))
}

func (in PostInput) normalized() PostInput {
	return PostInput{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
	}
}

var _ PostService = (*postService)(nil)
