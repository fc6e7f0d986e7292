package handlers

import (
	"net/http"
	"testing"

	"github.com/chirp-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUserHandler(userRepo *fakeUserRepo, notifRepo *fakeNotificationRepo) *UserHandler {
	return NewUserHandler(userRepo, notifRepo, nil, nil)
}

func TestFollowThenUnfollowRestoresState(t *testing.T) {
	e := setupEcho()
	userRepo := newFakeUserRepo()
	notifRepo := newFakeNotificationRepo()
	ann := seedUser(t, userRepo, "ann", "ann@x.com", "password1")
	bob := seedUser(t, userRepo, "bob", "bob@x.com", "password1")
	h := newUserHandler(userRepo, notifRepo)

	params := map[string]string{"id": bob.ID.Hex()}

	rec := doRequest(e, http.MethodPost, "/api/users/follow/"+bob.ID.Hex(), nil, ann, params, h.FollowUnfollowUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "Followed successfully", body["message"])

	assert.True(t, ann.IsFollowing(bob.ID))
	assert.Contains(t, bob.Followers, ann.ID)

	// exactly one follow notification, addressed to bob
	require.Len(t, notifRepo.notifications, 1)
	n := notifRepo.notifications[0]
	assert.Equal(t, models.NotificationTypeFollow, n.Type)
	assert.Equal(t, ann.ID, n.From)
	assert.Equal(t, bob.ID, n.To)
	assert.False(t, n.Read)

	rec = doRequest(e, http.MethodPost, "/api/users/follow/"+bob.ID.Hex(), nil, ann, params, h.FollowUnfollowUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &body)
	assert.Equal(t, "Unfollowed successfully", body["message"])

	assert.Empty(t, ann.Following)
	assert.Empty(t, bob.Followers)

	// the notification survives the unfollow
	assert.Len(t, notifRepo.notifications, 1)
}

func TestFollowSelfRejected(t *testing.T) {
	e := setupEcho()
	userRepo := newFakeUserRepo()
	ann := seedUser(t, userRepo, "ann", "ann@x.com", "password1")
	h := newUserHandler(userRepo, newFakeNotificationRepo())

	rec := doRequest(e, http.MethodPost, "/api/users/follow/"+ann.ID.Hex(), nil, ann,
		map[string]string{"id": ann.ID.Hex()}, h.FollowUnfollowUser)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You can't follow/unfollow yourself", errorMessage(t, rec))
}

func TestFollowMissingTarget(t *testing.T) {
	e := setupEcho()
	userRepo := newFakeUserRepo()
	ann := seedUser(t, userRepo, "ann", "ann@x.com", "password1")
	h := newUserHandler(userRepo, newFakeNotificationRepo())

	ghost := primitive.NewObjectID()
	rec := doRequest(e, http.MethodPost, "/api/users/follow/"+ghost.Hex(), nil, ann,
		map[string]string{"id": ghost.Hex()}, h.FollowUnfollowUser)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", errorMessage(t, rec))
}

func TestGetUserProfile(t *testing.T) {
	e := setupEcho()
	userRepo := newFakeUserRepo()
	ann := seedUser(t, userRepo, "ann", "ann@x.com", "password1")
	h := newUserHandler(userRepo, newFakeNotificationRepo())

	rec := doRequest(e, http.MethodGet, "/api/users/profile/ann", nil, ann,
		map[string]string{"username": "ann"}, h.GetUserProfile)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]models.User
	decodeBody(t, rec, &body)
	assert.Equal(t, "ann", body["user"].Username)

	rec = doRequest(e, http.MethodGet, "/api/users/profile/ghost", nil, ann,
		map[string]string{"username": "ghost"}, h.GetUserProfile)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", errorMessage(t, rec))
}

func TestGetSuggestedUsersExcludesFollowed(t *testing.T) {
	e := setupEcho()
	userRepo := newFakeUserRepo()
	notifRepo := newFakeNotificationRepo()
	ann := seedUser(t, userRepo, "ann", "ann@x.com", "password1")
	bob := seedUser(t, userRepo, "bob", "bob@x.com", "password1")
	cal := seedUser(t, userRepo, "cal", "cal@x.com", "password1")
	h := newUserHandler(userRepo, notifRepo)

	require.NoError(t, userRepo.AddFollow(nil, ann.ID, bob.ID))

	rec := doRequest(e, http.MethodGet, "/api/users/suggested", nil, ann, nil, h.GetSuggestedUsers)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body []models.User
	decodeBody(t, rec, &body)
	require.Len(t, body, 1)
	assert.Equal(t, cal.ID, body[0].ID)
}

func TestUpdateUserPasswordPairing(t *testing.T) {
	e := setupEcho()
	userRepo := newFakeUserRepo()
	ann := seedUser(t, userRepo, "ann", "ann@x.com", "password1")
	h := newUserHandler(userRepo, newFakeNotificationRepo())

	rec := doRequest(e, http.MethodPost, "/api/users/update", models.UpdateUserRequest{
		NewPassword: "newpassword",
	}, ann, nil, h.UpdateUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide current password and new password", errorMessage(t, rec))

	rec = doRequest(e, http.MethodPost, "/api/users/update", models.UpdateUserRequest{
		CurrentPassword: "wrong",
		NewPassword:     "newpassword",
	}, ann, nil, h.UpdateUser)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid current password", errorMessage(t, rec))

	rec = doRequest(e, http.MethodPost, "/api/users/update", models.UpdateUserRequest{
		CurrentPassword: "password1",
		NewPassword:     "tiny",
	}, ann, nil, h.UpdateUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "New password should be at least 6 characters long", errorMessage(t, rec))
}

func TestUpdateUserUsernameTaken(t *testing.T) {
	e := setupEcho()
	userRepo := newFakeUserRepo()
	ann := seedUser(t, userRepo, "ann", "ann@x.com", "password1")
	seedUser(t, userRepo, "bob", "bob@x.com", "password1")
	h := newUserHandler(userRepo, newFakeNotificationRepo())

	rec := doRequest(e, http.MethodPost, "/api/users/update", models.UpdateUserRequest{
		Username: "bob",
	}, ann, nil, h.UpdateUser)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username is already taken", errorMessage(t, rec))
}

func TestUpdateUserProfileFields(t *testing.T) {
	e := setupEcho()
	userRepo := newFakeUserRepo()
	ann := seedUser(t, userRepo, "ann", "ann@x.com", "password1")
	h := newUserHandler(userRepo, newFakeNotificationRepo())

	rec := doRequest(e, http.MethodPost, "/api/users/update", models.UpdateUserRequest{
		Bio:  "hello there",
		Link: "https://ann.example",
	}, ann, nil, h.UpdateUser)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body models.User
	decodeBody(t, rec, &body)
	assert.Equal(t, "hello there", body.Bio)
	assert.Equal(t, "https://ann.example", body.Link)
	assert.Equal(t, "ann", body.Username)
}
