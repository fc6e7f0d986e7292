package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is embedded in its parent post document.
type Comment struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// Post represents a post document stored in MongoDB.
type Post struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	User      primitive.ObjectID   `json:"user" bson:"user"`
	Text      string               `json:"text" bson:"text"`
	Img       string               `json:"img,omitempty" bson:"img,omitempty"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments  []Comment            `json:"comments" bson:"comments"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// IsLikedBy reports whether the user already likes the post.
func (p *Post) IsLikedBy(id primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l == id {
			return true
		}
	}
	return false
}

// EnrichedPost expands a post with its author's compact profile.
type EnrichedPost struct {
	Post
	Author UserCompact `json:"author"`
}

// CreatePostRequest defines the request body for creating a post. Img, when
// present, is a raw upload payload.
type CreatePostRequest struct {
	Text string `json:"text" validate:"max=280"`
	Img  string `json:"img"`
}

// CommentRequest defines the request body for commenting on a post.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=280"`
}
