package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
)

type commentDocument struct {
	ID        string    `bson:"_id"`
	AuthorID  string    `bson:"author_id"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

type postDocument struct {
	ID        string            `bson:"_id"`
	AuthorID  string            `bson:"author_id"`
	Title     string            `bson:"title"`
	Content   string            `bson:"content"`
	Likes     []string          `bson:"likes"`
	Comments  []commentDocument `bson:"comments"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

func newCommentDocument(c *models.Comment) commentDocument {
	return commentDocument{
		ID:        c.ID,
		AuthorID:  c.AuthorID.String(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func newPostDocument(p *models.Post) *postDocument {
	doc := &postDocument{
		ID:        p.ID,
		AuthorID:  p.AuthorID.String(),
		Title:     p.Title,
		Content:   p.Content,
		Likes:     likesToStrings(p.Likes),
		Comments:  make([]commentDocument, 0, len(p.Comments)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for i := range p.Comments {
		doc.Comments = append(doc.Comments, newCommentDocument(&p.Comments[i]))
	}
	return doc
}

func (d *postDocument) model() (*models.Post, error) {
	authorID, err := uuid.Parse(d.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author id on post %s: %w", d.ID, err)
	}
	likes, err := likesFromStrings(d.Likes)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:        d.ID,
		AuthorID:  authorID,
		Title:     d.Title,
		Content:   d.Content,
		Likes:     likes,
		Comments:  make([]models.Comment, 0, len(d.Comments)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, c := range d.Comments {
		commentAuthor, err := uuid.Parse(c.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("invalid comment author on post %s: %w", d.ID, err)
		}
		post.Comments = append(post.Comments, models.Comment{
			ID:        c.ID,
			AuthorID:  commentAuthor,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return post, nil
}

type mongoPostRepo struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a MongoDB-backed post repository. Likes and
// comments are embedded in the post document.
func NewMongoPostRepository(ctx context.Context, db *mongo.Database) (PostRepository, error) {
	collection := db.Collection("posts")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create post indexes: %w", err)
	}

	return &mongoPostRepo{collection: collection}, nil
}

// Create inserts a new post.
func (r *mongoPostRepo) Create(ctx context.Context, post *models.Post) error {
	_, err := r.collection.InsertOne(ctx, newPostDocument(post))
	return err
}

// GetByID retrieves a post by id.
func (r *mongoPostRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var doc postDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.model()
}

// Update replaces title and content.
func (r *mongoPostRepo) Update(ctx context.Context, id, title, content string) error {
	update := bson.M{
		"$set": bson.M{
			"title":      title,
			"content":    content,
			"updated_at": time.Now().UTC(),
		},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a post document.
func (r *mongoPostRepo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of posts, newest first.
func (r *mongoPostRepo) List(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	posts := make([]*models.Post, 0, len(docs))
	for i := range docs {
		post, err := docs[i].model()
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// Count returns the total number of posts.
func (r *mongoPostRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// SetLike applies $addToSet or $pull and returns the document after the update.
func (r *mongoPostRepo) SetLike(ctx context.Context, id string, userID uuid.UUID, liked bool) (*models.Post, error) {
	op := "$pull"
	if liked {
		op = "$addToSet"
	}
	update := bson.M{op: bson.M{"likes": userID.String()}}

	var doc postDocument
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model()
}

// AddComment pushes a comment onto the post document.
func (r *mongoPostRepo) AddComment(ctx context.Context, id string, comment *models.Comment) error {
	update := bson.M{"$push": bson.M{"comments": newCommentDocument(comment)}}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// StatsByAuthor aggregates the author's post count and received likes.
func (r *mongoPostRepo) StatsByAuthor(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"author_id": authorID.String()}}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"post_count": bson.M{"$sum": 1},
			"like_count": bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		PostCount int64 `bson:"post_count"`
		LikeCount int64 `bson:"like_count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	stats := &models.AuthorStats{}
	if len(rows) > 0 {
		stats.PostCount = rows[0].PostCount
		stats.LikeCount = rows[0].LikeCount
	}
	return stats, nil
}

var _ PostRepository = (*mongoPostRepo)(nil)
