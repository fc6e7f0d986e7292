package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/chirp-social/backend/internal/middleware"
	"github.com/chirp-social/backend/internal/models"
	"github.com/chirp-social/backend/internal/repositories"
	"github.com/chirp-social/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zap.NewNop())
	return e
}

// doRequest invokes a handler directly, routing any returned error through
// the application's error handler so the recorded body matches production.
func doRequest(e *echo.Echo, method, target string, body interface{}, user *models.User, params map[string]string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	if user != nil {
		middleware.SetCurrentUser(c, user)
	}

	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}

// ---- in-memory fakes ----

type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) AddFollow(_ context.Context, follower, target primitive.ObjectID) error {
	t := r.users[target]
	f := r.users[follower]
	if !contains(t.Followers, follower) {
		t.Followers = append(t.Followers, follower)
	}
	if !contains(f.Following, target) {
		f.Following = append(f.Following, target)
	}
	return nil
}

func (r *fakeUserRepo) RemoveFollow(_ context.Context, follower, target primitive.ObjectID) error {
	t := r.users[target]
	f := r.users[follower]
	t.Followers = remove(t.Followers, follower)
	f.Following = remove(f.Following, target)
	return nil
}

func (r *fakeUserRepo) GetSuggestedUsers(_ context.Context, exclude []primitive.ObjectID, limit int64) ([]models.User, error) {
	var suggested []models.User
	for _, user := range r.users {
		if !contains(exclude, user.ID) {
			suggested = append(suggested, *user)
		}
	}
	sort.Slice(suggested, func(i, j int) bool {
		return len(suggested[i].Followers) > len(suggested[j].Followers)
	})
	if int64(len(suggested)) > limit {
		suggested = suggested[:limit]
	}
	return suggested, nil
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type fakeNotificationRepo struct {
	notifications []models.Notification
	clock         time.Time
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{clock: time.Now()}
}

func (r *fakeNotificationRepo) CreateNotification(_ context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	n.Read = false
	r.clock = r.clock.Add(time.Second)
	n.CreatedAt = r.clock
	n.UpdatedAt = r.clock
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Notification, error) {
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			n := r.notifications[i]
			return &n, nil
		}
	}
	return nil, repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) GetOwned(_ context.Context, id, to primitive.ObjectID) (*models.Notification, error) {
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].To == to {
			n := r.notifications[i]
			return &n, nil
		}
	}
	return nil, repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, to primitive.ObjectID, limit int64) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range r.notifications {
		if n.To == to {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, to primitive.ObjectID) (int64, error) {
	var count int64
	for _, n := range r.notifications {
		if n.To == to && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(_ context.Context, id primitive.ObjectID) error {
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications[i].Read = true
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllAsRead(_ context.Context, to primitive.ObjectID) (int64, error) {
	var modified int64
	for i := range r.notifications {
		if r.notifications[i].To == to && !r.notifications[i].Read {
			r.notifications[i].Read = true
			modified++
		}
	}
	return modified, nil
}

func (r *fakeNotificationRepo) DeleteNotification(_ context.Context, id primitive.ObjectID) error {
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) DeleteAllForRecipient(_ context.Context, to primitive.ObjectID) error {
	out := r.notifications[:0]
	for _, n := range r.notifications {
		if n.To != to {
			out = append(out, n)
		}
	}
	r.notifications = out
	return nil
}

func (r *fakeNotificationRepo) UnreadCountsByRecipient(_ context.Context) (map[primitive.ObjectID]int64, error) {
	counts := make(map[primitive.ObjectID]int64)
	for _, n := range r.notifications {
		if !n.Read {
			counts[n.To]++
		}
	}
	return counts, nil
}

type fakeSettingsRepo struct {
	settings map[primitive.ObjectID]*models.NotificationSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[primitive.ObjectID]*models.NotificationSettings)}
}

func (r *fakeSettingsRepo) GetOrCreate(_ context.Context, user primitive.ObjectID) (*models.NotificationSettings, error) {
	if s, ok := r.settings[user]; ok {
		return s, nil
	}
	s := models.DefaultNotificationSettings(user)
	s.ID = primitive.NewObjectID()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.settings[user] = s
	return s, nil
}

func (r *fakeSettingsRepo) Upsert(ctx context.Context, user primitive.ObjectID, update *models.UpdateNotificationSettingsRequest) (*models.NotificationSettings, error) {
	s, err := r.GetOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}
	if update.EmailNotifications != nil {
		s.EmailNotifications = *update.EmailNotifications
	}
	if update.PushNotifications != nil {
		s.PushNotifications = *update.PushNotifications
	}
	if update.SoundEnabled != nil {
		s.SoundEnabled = *update.SoundEnabled
	}
	if update.NotificationTypes != nil {
		s.NotificationTypes = *update.NotificationTypes
	}
	s.UpdatedAt = time.Now()
	return s, nil
}

type fakePostRepo struct {
	posts map[primitive.ObjectID]*models.Post
	order []primitive.ObjectID
	clock time.Time
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[primitive.ObjectID]*models.Post), clock: time.Now()}
}

func (r *fakePostRepo) CreatePost(_ context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	r.clock = r.clock.Add(time.Second)
	post.CreatedAt = r.clock
	post.UpdatedAt = r.clock
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	r.posts[post.ID] = post
	r.order = append(r.order, post.ID)
	return nil
}

func (r *fakePostRepo) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	if post, ok := r.posts[id]; ok {
		p := *post
		return &p, nil
	}
	return nil, repositories.ErrPostNotFound
}

func (r *fakePostRepo) GetAllPosts(_ context.Context, skip, limit int64) ([]models.Post, error) {
	return r.page(nil, skip, limit), nil
}

func (r *fakePostRepo) GetPostsByUser(_ context.Context, user primitive.ObjectID, skip, limit int64) ([]models.Post, error) {
	return r.page(&user, skip, limit), nil
}

func (r *fakePostRepo) page(user *primitive.ObjectID, skip, limit int64) []models.Post {
	var out []models.Post
	for i := len(r.order) - 1; i >= 0; i-- {
		post := r.posts[r.order[i]]
		if user != nil && post.User != *user {
			continue
		}
		out = append(out, *post)
	}
	if skip > int64(len(out)) {
		skip = int64(len(out))
	}
	out = out[skip:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}

func (r *fakePostRepo) DeletePost(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.posts[id]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(r.posts, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakePostRepo) AddLike(_ context.Context, postID, userID primitive.ObjectID) error {
	post, ok := r.posts[postID]
	if !ok {
		return repositories.ErrPostNotFound
	}
	if !contains(post.Likes, userID) {
		post.Likes = append(post.Likes, userID)
	}
	return nil
}

func (r *fakePostRepo) RemoveLike(_ context.Context, postID, userID primitive.ObjectID) error {
	post, ok := r.posts[postID]
	if !ok {
		return repositories.ErrPostNotFound
	}
	post.Likes = remove(post.Likes, userID)
	return nil
}

func (r *fakePostRepo) AddComment(_ context.Context, postID primitive.ObjectID, comment *models.Comment) error {
	post, ok := r.posts[postID]
	if !ok {
		return repositories.ErrPostNotFound
	}
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	post.Comments = append(post.Comments, *comment)
	return nil
}

// seedUser inserts a user with a known password hash.
func seedUser(t *testing.T, repo *fakeUserRepo, username, email, password string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		FullName: username,
		Email:    email,
		Password: hashPassword(t, password),
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}
