package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account document stored in MongoDB. Field names match
// the collection schema, so the follow graph lives inside the document as
// two ID lists.
type User struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Username  string               `json:"username" bson:"username"`
	FullName  string               `json:"fullName" bson:"fullName"`
	Email     string               `json:"email" bson:"email"`
	Password  string               `json:"-" bson:"password"` // bcrypt hash, never serialized
	Followers []primitive.ObjectID `json:"followers" bson:"followers"`
	Following []primitive.ObjectID `json:"following" bson:"following"`
	ProfileImg string              `json:"profileImg" bson:"profileImg"`
	CoverImg   string              `json:"coverImg" bson:"coverImg"`
	Bio        string              `json:"bio" bson:"bio"`
	Link       string              `json:"link" bson:"link"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// UserCompact is the sender shape embedded in enriched responses.
type UserCompact struct {
	ID         primitive.ObjectID `json:"_id"`
	Username   string             `json:"username"`
	FullName   string             `json:"fullName"`
	ProfileImg string             `json:"profileImg"`
}

// ToCompact returns the compact projection of a user.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		ProfileImg: u.ProfileImg,
	}
}

// IsFollowing reports whether id is in the user's following list.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}

// SignupRequest defines the request body for account creation. The literal
// validation messages are produced in the handler, not by tag validation.
type SignupRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest defines the request body for credential login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserRequest allows conditional replacement of any subset of profile
// fields. Image fields carry raw upload payloads, not URLs.
type UpdateUserRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	Bio             string `json:"bio"`
	Link            string `json:"link"`
	ProfileImg      string `json:"profileImg"`
	CoverImg        string `json:"coverImg"`
}

// JwtCustomClaims are the session claims carried by the jwt cookie.
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
