package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types. The enum matches the per-type toggles in
// NotificationTypePrefs.
const (
	NotificationTypeFollow  = "follow"
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeReply   = "reply"
)

// Notification represents a user notification document. From/To reference
// user documents; Post is set for post-scoped types (like, comment, reply).
type Notification struct {
	ID        primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Type      string              `json:"type" bson:"type"`
	From      primitive.ObjectID  `json:"from" bson:"from"`
	To        primitive.ObjectID  `json:"to" bson:"to"`
	Post      *primitive.ObjectID `json:"post,omitempty" bson:"post,omitempty"`
	Read      bool                `json:"read" bson:"read"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// EnrichedNotification expands a notification with the sender's compact
// profile and the related post's text for list responses.
type EnrichedNotification struct {
	Notification
	FromUser UserCompact          `json:"fromUser"`
	PostText string               `json:"postText,omitempty"`
}
