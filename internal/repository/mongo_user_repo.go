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

type userDocument struct {
	ID          string     `bson:"_id"`
	GoogleID    string     `bson:"google_id"`
	DisplayName string     `bson:"display_name"`
	Email       string     `bson:"email"`
	PictureURL  string     `bson:"picture_url,omitempty"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func newUserDocument(u *models.User) *userDocument {
	return &userDocument{
		ID:          u.ID.String(),
		GoogleID:    u.GoogleID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		PictureURL:  u.PictureURL,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (d *userDocument) model() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return &models.User{
		ID:          id,
		GoogleID:    d.GoogleID,
		DisplayName: d.DisplayName,
		Email:       d.Email,
		PictureURL:  d.PictureURL,
		LastLoginAt: d.LastLoginAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type mongoUserRepo struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a MongoDB-backed user repository and
// ensures the unique index on google_id.
func NewMongoUserRepository(ctx context.Context, db *mongo.Database) (UserRepository, error) {
	collection := db.Collection("users")

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "google_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, fmt.Errorf("failed to create index on google_id: %w", err)
	}

	return &mongoUserRepo{collection: collection}, nil
}

// Create inserts a new user.
func (r *mongoUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, newUserDocument(user))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("user with google id %s already exists: %w", user.GoogleID, err)
	}
	return err
}

// GetByID retrieves a user by id.
func (r *mongoUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// GetByGoogleID retrieves a user by Google subject id.
func (r *mongoUserRepo) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"google_id": googleID})
}

// GetByIDs retrieves all users whose id is in ids.
func (r *mongoUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	result := make(map[uuid.UUID]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": strIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for i := range docs {
		user, err := docs[i].model()
		if err != nil {
			return nil, err
		}
		result[user.ID] = user
	}
	return result, nil
}

// Update persists profile fields refreshed at login.
func (r *mongoUserRepo) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"display_name":  user.DisplayName,
			"email":         user.Email,
			"picture_url":   user.PictureURL,
			"last_login_at": user.LastLoginAt,
			"updated_at":    user.UpdatedAt,
		},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID.String()}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.model()
}

var _ UserRepository = (*mongoUserRepo)(nil)
