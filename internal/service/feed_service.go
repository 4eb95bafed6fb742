package service

import (
	"context"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
	apierrors "github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/errors"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/repository"
)

// DefaultPageSize is used when no positive page size is configured.
const DefaultPageSize = 10

// FeedComment is a comment with its resolved author.
type FeedComment struct {
	models.Comment
	Author models.UserSummary
}

// FeedPost is a post enriched for display.
type FeedPost struct {
	*models.Post
	Author        models.UserSummary
	Comments      []FeedComment
	LikeCount     int
	LikedByViewer bool
	CanEdit       bool
}

// FeedPage is one page of the feed.
type FeedPage struct {
	Posts    []FeedPost
	Page     int
	PageSize int
	Total    int64
	HasPrev  bool
	HasNext  bool
}

// PrevPage returns the previous page number.
func (p *FeedPage) PrevPage() int { return p.Page - 1 }

// NextPage returns the next page number.
func (p *FeedPage) NextPage() int { return p.Page + 1 }

// FeedService assembles the paginated feed.
type FeedService interface {
	// Assemble returns page (1-based) of the feed as seen by viewer.
	// Pages past the end are empty, not an error.
	Assemble(ctx context.Context, viewer *models.Principal, page, pageSize int) (*FeedPage, error)
}

type feedService struct {
	postRepo        repository.PostRepository
	userRepo        repository.UserRepository
	defaultPageSize int
}

// NewFeedService creates a new feed service.
func NewFeedService(postRepo repository.PostRepository, userRepo repository.UserRepository, defaultPageSize int) FeedService {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	return &feedService{
		postRepo:        postRepo,
		userRepo:        userRepo,
		defaultPageSize: defaultPageSize,
	}
}

// ParsePage converts a page query value to a page number. Missing,
// non-numeric, zero and negative values map to 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (s *feedService) Assemble(ctx context.Context, viewer *models.Principal, page, pageSize int) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}

	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, apierrors.NewPersistenceError("count posts", err)
	}

	// offset+pageSize must fit in an int; anything that far out is past the last post.
	if page-1 > (math.MaxInt-pageSize)/pageSize {
		return &FeedPage{
			Posts:    []FeedPost{},
			Page:     page,
			PageSize: pageSize,
			Total:    total,
			HasPrev:  true,
		}, nil
	}
	offset := (page - 1) * pageSize

	posts, err := s.postRepo.List(ctx, offset, pageSize)
	if err != nil {
		return nil, apierrors.NewPersistenceError("list posts", err)
	}

	authors, err := s.userRepo.GetByIDs(ctx, authorIDs(posts))
	if err != nil {
		return nil, apierrors.NewPersistenceError("load authors", err)
	}

	feed := &FeedPage{
		Posts:    make([]FeedPost, 0, len(posts)),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasPrev:  page > 1,
		HasNext:  int64(offset+len(posts)) < total,
	}
	for _, p := range posts {
		feed.Posts = append(feed.Posts, enrich(p, authors, viewer))
	}
	return feed, nil
}

// authorIDs collects every post and comment author for one batched lookup.
func authorIDs(posts []*models.Post) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, p := range posts {
		for _, id := range p.AuthorIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func enrich(p *models.Post, authors map[uuid.UUID]*models.User, viewer *models.Principal) FeedPost {
	fp := FeedPost{
		Post:      p,
		Author:    summary(authors, p.AuthorID),
		Comments:  make([]FeedComment, 0, len(p.Comments)),
		LikeCount: p.LikeCount(),
		CanEdit:   CanMutate(viewer, p),
	}
	if viewer != nil {
		fp.LikedByViewer = p.LikedBy(viewer.UserID)
	}
	for _, c := range p.Comments {
		fp.Comments = append(fp.Comments, FeedComment{
			Comment: c,
			Author:  summary(authors, c.AuthorID),
		})
	}
	return fp
}

func summary(authors map[uuid.UUID]*models.User, id uuid.UUID) models.UserSummary {
	if u, ok := authors[id]; ok {
		return u.Summary()
	}
	return models.UnknownAuthor(id)
}

var _ FeedService = (*feedService)(nil)
