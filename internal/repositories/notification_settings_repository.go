package repositories

import (
	"context"
	"time"

	"github.com/chirp-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationSettingsRepository defines the interface for per-user
// notification preferences. Default construction on miss happens here, not
// at signup.
type NotificationSettingsRepository interface {
	GetOrCreate(ctx context.Context, user primitive.ObjectID) (*models.NotificationSettings, error)
	Upsert(ctx context.Context, user primitive.ObjectID, update *models.UpdateNotificationSettingsRequest) (*models.NotificationSettings, error)
}

// MongoNotificationSettingsRepository implements
// NotificationSettingsRepository for MongoDB.
type MongoNotificationSettingsRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationSettingsRepository creates a new MongoNotificationSettingsRepository.
func NewMongoNotificationSettingsRepository(db *mongo.Database) *MongoNotificationSettingsRepository {
	return &MongoNotificationSettingsRepository{collection: db.Collection("notificationsettings")}
}

// GetOrCreate returns the user's settings, inserting the all-true defaults
// on first access.
func (r *MongoNotificationSettingsRepository) GetOrCreate(ctx context.Context, user primitive.ObjectID) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	err := r.collection.FindOne(ctx, bson.M{"user": user}).Decode(&settings)
	if err == nil {
		return &settings, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	defaults := models.DefaultNotificationSettings(user)
	defaults.ID = primitive.NewObjectID()
	defaults.CreatedAt = time.Now()
	defaults.UpdatedAt = defaults.CreatedAt
	if _, err := r.collection.InsertOne(ctx, defaults); err != nil {
		return nil, err
	}
	return defaults, nil
}

// Upsert applies a full or partial replacement in one step: only provided
// fields are set, defaults fill the rest when the document is created by
// this call. Returns the resulting document.
func (r *MongoNotificationSettingsRepository) Upsert(ctx context.Context, user primitive.ObjectID, update *models.UpdateNotificationSettingsRequest) (*models.NotificationSettings, error) {
	now := time.Now()
	set := bson.M{"updatedAt": now}
	if update.EmailNotifications != nil {
		set["emailNotifications"] = *update.EmailNotifications
	}
	if update.PushNotifications != nil {
		set["pushNotifications"] = *update.PushNotifications
	}
	if update.SoundEnabled != nil {
		set["soundEnabled"] = *update.SoundEnabled
	}
	if update.NotificationTypes != nil {
		set["notificationTypes"] = *update.NotificationTypes
	}

	setOnInsert := bson.M{"user": user, "createdAt": now}
	defaults := models.DefaultNotificationSettings(user)
	if update.EmailNotifications == nil {
		setOnInsert["emailNotifications"] = defaults.EmailNotifications
	}
	if update.PushNotifications == nil {
		setOnInsert["pushNotifications"] = defaults.PushNotifications
	}
	if update.SoundEnabled == nil {
		setOnInsert["soundEnabled"] = defaults.SoundEnabled
	}
	if update.NotificationTypes == nil {
		setOnInsert["notificationTypes"] = defaults.NotificationTypes
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var settings models.NotificationSettings
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"user": user},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		opts,
	).Decode(&settings)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
