package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/chirp-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrUserNotFound is returned when no user document matches the query.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	AddFollow(ctx context.Context, follower, target primitive.ObjectID) error
	RemoveFollow(ctx context.Context, follower, target primitive.ObjectID) error
	GetSuggestedUsers(ctx context.Context, exclude []primitive.ObjectID, limit int64) ([]models.User, error)
}

// MongoUserRepository implements UserRepository for MongoDB.
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser inserts a new user document.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

// GetUserByID retrieves a user by ID.
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByUsername retrieves a user by username.
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// GetUserByEmail retrieves a user by email.
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser replaces the mutable profile fields of an existing user.
func (r *MongoUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"username":   user.Username,
			"fullName":   user.FullName,
			"email":      user.Email,
			"password":   user.Password,
			"bio":        user.Bio,
			"link":       user.Link,
			"profileImg": user.ProfileImg,
			"coverImg":   user.CoverImg,
			"updatedAt":  user.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddFollow adds follower to target's followers and target to follower's
// following. The two writes are not transactional; if the second fails the
// first is rolled back best-effort before the error is returned.
func (r *MongoUserRepository) AddFollow(ctx context.Context, follower, target primitive.ObjectID) error {
	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": target},
		bson.M{"$addToSet": bson.M{"followers": follower}},
	); err != nil {
		return err
	}
	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": follower},
		bson.M{"$addToSet": bson.M{"following": target}},
	); err != nil {
		r.collection.UpdateOne(ctx,
			bson.M{"_id": target},
			bson.M{"$pull": bson.M{"followers": follower}},
		)
		return err
	}
	return nil
}

// RemoveFollow undoes AddFollow with the same compensation policy.
func (r *MongoUserRepository) RemoveFollow(ctx context.Context, follower, target primitive.ObjectID) error {
	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": target},
		bson.M{"$pull": bson.M{"followers": follower}},
	); err != nil {
		return err
	}
	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": follower},
		bson.M{"$pull": bson.M{"following": target}},
	); err != nil {
		r.collection.UpdateOne(ctx,
			bson.M{"_id": target},
			bson.M{"$addToSet": bson.M{"followers": follower}},
		)
		return err
	}
	return nil
}

// GetSuggestedUsers returns up to limit users outside the exclusion list,
// most-followed first, padded with further non-excluded users when short.
func (r *MongoUserRepository) GetSuggestedUsers(ctx context.Context, exclude []primitive.ObjectID, limit int64) ([]models.User, error) {
	if exclude == nil {
		exclude = []primitive.ObjectID{}
	}

	var users []models.User
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "followers", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$nin": exclude}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}

	if int64(len(users)) < limit {
		padded := exclude
		for _, u := range users {
			padded = append(padded, u.ID)
		}
		var extra []models.User
		extraOptions := options.Find().SetLimit(limit - int64(len(users)))
		extraCursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$nin": padded}}, extraOptions)
		if err != nil {
			return nil, err
		}
		defer extraCursor.Close(ctx)
		if err = extraCursor.All(ctx, &extra); err != nil {
			return nil, err
		}
		users = append(users, extra...)
	}

	return users, nil
}
