package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationTypePrefs holds the per-type delivery toggles.
type NotificationTypePrefs struct {
	Follow  bool `json:"follow" bson:"follow"`
	Like    bool `json:"like" bson:"like"`
	Comment bool `json:"comment" bson:"comment"`
	Reply   bool `json:"reply" bson:"reply"`
}

// NotificationSettings is the one-to-one per-user preference document.
// All toggles default to true; the document is created lazily on first read.
type NotificationSettings struct {
	ID                 primitive.ObjectID    `json:"_id" bson:"_id,omitempty"`
	User               primitive.ObjectID    `json:"user" bson:"user"`
	EmailNotifications bool                  `json:"emailNotifications" bson:"emailNotifications"`
	PushNotifications  bool                  `json:"pushNotifications" bson:"pushNotifications"`
	SoundEnabled       bool                  `json:"soundEnabled" bson:"soundEnabled"`
	NotificationTypes  NotificationTypePrefs `json:"notificationTypes" bson:"notificationTypes"`
	CreatedAt          time.Time             `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt" bson:"updatedAt"`
}

// DefaultNotificationSettings returns the all-true default document for a user.
func DefaultNotificationSettings(user primitive.ObjectID) *NotificationSettings {
	return &NotificationSettings{
		User:               user,
		EmailNotifications: true,
		PushNotifications:  true,
		SoundEnabled:       true,
		NotificationTypes: NotificationTypePrefs{
			Follow:  true,
			Like:    true,
			Comment: true,
			Reply:   true,
		},
	}
}

// Allows reports whether delivery is enabled for the given notification type.
func (s *NotificationSettings) Allows(notificationType string) bool {
	switch notificationType {
	case NotificationTypeFollow:
		return s.NotificationTypes.Follow
	case NotificationTypeLike:
		return s.NotificationTypes.Like
	case NotificationTypeComment:
		return s.NotificationTypes.Comment
	case NotificationTypeReply:
		return s.NotificationTypes.Reply
	default:
		return false
	}
}

// UpdateNotificationSettingsRequest carries a full or partial settings
// replacement. Nil fields are left untouched by the upsert.
type UpdateNotificationSettingsRequest struct {
	EmailNotifications *bool                  `json:"emailNotifications"`
	PushNotifications  *bool                  `json:"pushNotifications"`
	SoundEnabled       *bool                  `json:"soundEnabled"`
	NotificationTypes  *NotificationTypePrefs `json:"notificationTypes"`
}
