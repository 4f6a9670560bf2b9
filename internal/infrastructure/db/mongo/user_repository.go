package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

const usersCollection = "users"

// MongoUserRepository persists user accounts with a numeric _id so token
// subjects stay small and stable.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID           int64  `bson:"_id"`
	Username     string `bson:"username"`
	Email        string `bson:"email,omitempty"`
	PasswordHash string `bson:"password_hash"`
	IsActive     bool   `bson:"is_active"`
	CreatedAt    int64  `bson:"created_at"`
}

// EnsureIndexes creates the unique username and email indexes. Called once
// at startup and by the seed tool.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// UpdatePasswordHash swaps the stored digest in a single document update.
func (r *MongoUserRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": hash}},
	)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	id := user.ID
	if id == 0 {
		next, err := r.nextID(ctx)
		if err != nil {
			return nil, err
		}
		id = next
	}

	doc := mongoUser{
		ID:           id,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return r.FindByID(ctx, id)
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &domain.User{
		ID:           mu.ID,
		Username:     mu.Username,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		IsActive:     mu.IsActive,
		CreatedAt:    unixToTime(mu.CreatedAt),
	}, nil
}

// nextID allocates ids for the seed tool. Seeding is sequential and
// out-of-band, so max+1 is sufficient.
func (r *MongoUserRepository) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})
	var mu mongoUser
	err := r.coll.FindOne(ctx, bson.M{}, opts).Decode(&mu)
	if err == mongo.ErrNoDocuments {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("allocate user id: %w", err)
	}
	return mu.ID + 1, nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
