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

// ErrNotificationNotFound is returned when no notification matches the query.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository defines the interface for notification operations.
// Ownership-scoped reads take the addressee so the store query itself
// enforces the scope.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	GetOwned(ctx context.Context, id, to primitive.ObjectID) (*models.Notification, error)
	ListByRecipient(ctx context.Context, to primitive.ObjectID, limit int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, to primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, to primitive.ObjectID) (int64, error)
	DeleteNotification(ctx context.Context, id primitive.ObjectID) error
	DeleteAllForRecipient(ctx context.Context, to primitive.ObjectID) error
	UnreadCountsByRecipient(ctx context.Context) (map[primitive.ObjectID]int64, error)
}

// MongoNotificationRepository implements NotificationRepository for MongoDB.
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository.
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// CreateNotification inserts a new notification, unread by default.
func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.Read = false
	notification.CreatedAt = time.Now()
	notification.UpdatedAt = notification.CreatedAt
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

// GetByID retrieves a notification by ID.
func (r *MongoNotificationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetOwned retrieves a notification by ID scoped to its addressee. A foreign
// notification is indistinguishable from a missing one.
func (r *MongoNotificationRepository) GetOwned(ctx context.Context, id, to primitive.ObjectID) (*models.Notification, error) {
	return r.findOne(ctx, bson.M{"_id": id, "to": to})
}

func (r *MongoNotificationRepository) findOne(ctx context.Context, filter bson.M) (*models.Notification, error) {
	var notification models.Notification
	err := r.collection.FindOne(ctx, filter).Decode(&notification)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

// ListByRecipient returns the recipient's newest notifications, capped at limit.
func (r *MongoNotificationRepository) ListByRecipient(ctx context.Context, to primitive.ObjectID, limit int64) ([]models.Notification, error) {
	var notifications []models.Notification
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"to": to}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread returns the recipient's unread notification count.
func (r *MongoNotificationRepository) CountUnread(ctx context.Context, to primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"to": to, "read": false})
}

// MarkAsRead sets the read flag on one notification.
func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllAsRead sets the read flag on all of the recipient's unread
// notifications and returns how many changed. Idempotent.
func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, to primitive.ObjectID) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"to": to, "read": false},
		bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// DeleteNotification deletes one notification by ID.
func (r *MongoNotificationRepository) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteAllForRecipient deletes every notification addressed to the recipient.
func (r *MongoNotificationRepository) DeleteAllForRecipient(ctx context.Context, to primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"to": to})
	return err
}

// UnreadCountsByRecipient aggregates unread counts per recipient, used by
// the digest job.
func (r *MongoNotificationRepository) UnreadCountsByRecipient(ctx context.Context) (map[primitive.ObjectID]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"read": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$to", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[primitive.ObjectID]int64)
	for cursor.Next(ctx) {
		var row struct {
			ID    primitive.ObjectID `bson:"_id"`
			Count int64              `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.ID] = row.Count
	}
	return counts, cursor.Err()
}
