package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
)

const postColumns = `id, author_id, title, content, likes, comments, created_at, updated_at`

type postRepo struct {
	pool *pgxpool.Pool
}

// NewPostRepository creates a PostgreSQL-backed post repository.
// Likes are stored as a TEXT[] set and comments as a JSONB array on the post row.
func NewPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postRepo{pool: pool}
}

// Create inserts a new post.
func (r *postRepo) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, author_id, title, content, likes, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	comments, err := encodeComments(post.Comments)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		post.ID,
		post.AuthorID,
		post.Title,
		post.Content,
		likesToStrings(post.Likes),
		comments,
		post.CreatedAt,
		post.UpdatedAt,
	)
	return err
}

// GetByID retrieves a post by id.
func (r *postRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Update replaces title and content.
func (r *postRepo) Update(ctx context.Context, id, title, content string) error {
	query := `UPDATE posts SET title = $2, content = $3, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, title, content)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a post with its likes and comments.
func (r *postRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of posts, newest first.
func (r *postRepo) List(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`

	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Count returns the total number of posts.
func (r *postRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

// SetLike adds or removes a like in one statement so racing toggles cannot duplicate ids.
func (r *postRepo) SetLike(ctx context.Context, id string, userID uuid.UUID, liked bool) (*models.Post, error) {
	var query string
	if liked {
		query = `
			UPDATE posts
			SET likes = CASE WHEN $2::text = ANY(likes) THEN likes ELSE array_append(likes, $2::text) END
			WHERE id = $1
			RETURNING ` + postColumns
	} else {
		query = `
			UPDATE posts SET likes = array_remove(likes, $2::text)
			WHERE id = $1
			RETURNING ` + postColumns
	}

	post, err := scanPost(r.pool.QueryRow(ctx, query, id, userID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// AddComment appends a comment to the post's comment array.
func (r *postRepo) AddComment(ctx context.Context, id string, comment *models.Comment) error {
	payload, err := encodeComments([]models.Comment{*comment})
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `UPDATE posts SET comments = comments || $2::jsonb WHERE id = $1`, id, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// StatsByAuthor counts the author's posts and the likes they received.
func (r *postRepo) StatsByAuthor(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(cardinality(likes)), 0) FROM posts WHERE author_id = $1`

	var stats models.AuthorStats
	if err := r.pool.QueryRow(ctx, query, authorID).Scan(&stats.PostCount, &stats.LikeCount); err != nil {
		return nil, err
	}
	return &stats, nil
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var (
		post     models.Post
		likes    []string
		comments []byte
	)
	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Content,
		&likes,
		&comments,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Likes, err = likesFromStrings(likes)
	if err != nil {
		return nil, err
	}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &post.Comments); err != nil {
			return nil, fmt.Errorf("decode comments of post %s: %w", post.ID, err)
		}
	}
	return &post, nil
}

func encodeComments(comments []models.Comment) ([]byte, error) {
	if comments == nil {
		comments = []models.Comment{}
	}
	b, err := json.Marshal(comments)
	if err != nil {
		return nil, fmt.Errorf("encode comments: %w", err)
	}
	return b, nil
}

func likesToStrings(likes []uuid.UUID) []string {
	out := make([]string, len(likes))
	for i, id := range likes {
		out[i] = id.String()
	}
	return out
}

func likesFromStrings(likes []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(likes))
	for _, s := range likes {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid like id %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}

var _ PostRepository = (*postRepo)(nil)
