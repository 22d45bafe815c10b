package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gatherlyhq/gatherly/config"
	"github.com/gatherlyhq/gatherly/db"
	"github.com/gatherlyhq/gatherly/realtime"
	"github.com/gatherlyhq/gatherly/services"
)

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  string          `json:"errors"`
	Status  string          `json:"status"`
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("GIN_MODE", "test")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	gdb := &db.GormDB{DB: gormDB}

	conf := &config.Config{
		Port:      3000,
		JWTSecret: "test-secret",
		BaseUrl:   "http://localhost:3000",
	}
	for _, opt := range opts {
		opt(conf)
	}

	authRepo := db.NewAuthRepo(gdb)
	postRepo := db.NewPostRepo(gdb)
	followRepo := db.NewFollowRepo(gdb)
	notificationRepo := db.NewNotificationRepo(gdb)
	chatRepo := db.NewChatRepo(gdb)
	hub := realtime.NewHub()

	mediaService := services.NewMediaService(conf)
	notificationService := services.NewNotificationService(notificationRepo, mediaService)

	s := &Server{
		Config:              conf,
		AuthRepository:      authRepo,
		AuthService:         services.NewAuthService(authRepo, conf),
		UserService:         services.NewUserService(conf, authRepo, followRepo, postRepo, mediaService),
		PostService:         services.NewPostService(conf, postRepo, authRepo, followRepo, mediaService, notificationService),
		FollowService:       services.NewFollowService(followRepo, authRepo, mediaService, notificationService),
		NotificationService: notificationService,
		ChatService:         services.NewChatService(chatRepo, authRepo, mediaService, hub),
		MediaService:        mediaService,
		Hub:                 hub,
	}
	return s, s.setupRouter()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

type account struct {
	id    uint
	token string
}

func signupAndLogin(t *testing.T, r *gin.Engine, name, email string) account {
	t.Helper()
	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		ID    uint   `json:"id"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotZero(t, login.ID)
	require.NotEmpty(t, login.Token)
	return account{id: login.ID, token: login.Token}
}

func TestAuthFlow(t *testing.T) {
	_, r := newTestServer(t)

	alice := signupAndLogin(t, r, "Alice", "alice@example.com")

	// Duplicate email is a conflict.
	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Alice Again",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Protected route requires a token.
	w, _ = doJSON(t, r, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := doJSON(t, r, http.MethodGet, "/api/me", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Alice", profile.Name)
	assert.NotEmpty(t, profile.Username)

	// Logout blacklists the token.
	w, _ = doJSON(t, r, http.MethodGet, "/api/logout", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/api/me", alice.token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatFlow(t *testing.T) {
	_, r := newTestServer(t)

	alice := signupAndLogin(t, r, "Alice", "alice@example.com")
	bob := signupAndLogin(t, r, "Bob", "bob@example.com")

	// Alice opens the conversation.
	w, env := doJSON(t, r, http.MethodPost, "/api/conversations", alice.token, map[string]uint{
		"other_user_id": bob.id,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var conv struct {
		ID        uint `json:"id"`
		OtherUser struct {
			ID uint `json:"id"`
		} `json:"other_user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &conv))
	assert.Equal(t, bob.id, conv.OtherUser.ID)

	// Bob opening it from his side resolves to the same conversation.
	w, env = doJSON(t, r, http.MethodPost, "/api/conversations", bob.token, map[string]uint{
		"other_user_id": alice.id,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var convFromBob struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &convFromBob))
	assert.Equal(t, conv.ID, convFromBob.ID)

	// Talking to yourself is rejected.
	w, _ = doJSON(t, r, http.MethodPost, "/api/conversations", alice.token, map[string]uint{
		"other_user_id": alice.id,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Alice sends two messages; a blank one is rejected.
	for _, text := range []string{"hi bob", "you there?"} {
		w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/conversations/%d/messages", conv.ID), alice.token,
			map[string]string{"text": text})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/conversations/%d/messages", conv.ID), alice.token,
		map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bob sees two unread messages.
	w, env = doJSON(t, r, http.MethodGet, "/api/messages/unread-count", bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unread struct {
		UnreadCount int64 `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	assert.Equal(t, int64(2), unread.UnreadCount)

	// Fetching the history marks them read.
	w, env = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/conversations/%d/messages", conv.ID), bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var messages []struct {
		Text     string `json:"text"`
		SenderID uint   `json:"sender_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "hi bob", messages[0].Text)
	assert.Equal(t, alice.id, messages[0].SenderID)

	w, env = doJSON(t, r, http.MethodGet, "/api/messages/unread-count", bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	assert.Zero(t, unread.UnreadCount)

	// The flat history path serves the same conversation.
	w, env = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/messages/%d", conv.ID), bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "hi bob", messages[0].Text)

	// A third user can't read or delete the thread.
	carol := signupAndLogin(t, r, "Carol", "carol@example.com")
	w, _ = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/conversations/%d/messages", conv.ID), carol.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/conversations/%d", conv.ID), carol.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Participants can.
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/conversations/%d", conv.ID), bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = doJSON(t, r, http.MethodGet, "/api/conversations", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var conversations []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &conversations))
	assert.Empty(t, conversations)
}

func TestPostAndNotificationFlow(t *testing.T) {
	_, r := newTestServer(t)

	alice := signupAndLogin(t, r, "Alice", "alice@example.com")
	bob := signupAndLogin(t, r, "Bob", "bob@example.com")

	// Posts are created with form fields.
	form := url.Values{"content": {"my first post"}}
	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+alice.token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var post struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &post))

	// Bob likes and comments.
	rec, _ := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/posts/%d/like", post.ID), bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), bob.token,
		map[string]string{"content": "nice one"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Alice liking her own post must not notify her.
	rec, _ = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/posts/%d/like", post.ID), alice.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, r, http.MethodGet, "/api/notifications", alice.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifications []struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &notifications))
	require.Len(t, notifications, 2)

	// Comment totals are served without a token.
	rec, env = doJSON(t, r, http.MethodGet, "/api/commentcount", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var counts []struct {
		PostID       uint  `json:"post_id"`
		CommentCount int64 `json:"comment_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	require.Len(t, counts, 1)
	assert.Equal(t, post.ID, counts[0].PostID)
	assert.Equal(t, int64(1), counts[0].CommentCount)

	// Feed shows the post with both likes counted.
	rec, env = doJSON(t, r, http.MethodGet, "/api/posts", bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed []struct {
		Likes    int  `json:"likes"`
		Comments int  `json:"comments"`
		IsLiked  bool `json:"isLiked"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, 2, feed[0].Likes)
	assert.Equal(t, 1, feed[0].Comments)
	assert.True(t, feed[0].IsLiked)

	// Only the author may delete.
	rec, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), alice.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFollowFlow(t *testing.T) {
	_, r := newTestServer(t)

	alice := signupAndLogin(t, r, "Alice", "alice@example.com")
	bob := signupAndLogin(t, r, "Bob", "bob@example.com")

	// Resolve bob's username via search.
	w, env := doJSON(t, r, http.MethodGet, "/api/search/users?q=bob", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)
	require.Equal(t, bob.id, found[0].ID)
	bobUsername := found[0].Username

	w, _ = doJSON(t, r, http.MethodPost, "/api/users/"+bobUsername+"/follow", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = doJSON(t, r, http.MethodGet, "/api/users/"+bobUsername+"/followers", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var followers []struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &followers))
	require.Len(t, followers, 1)
	assert.Equal(t, alice.id, followers[0].ID)

	// Bob was notified of the follow.
	w, env = doJSON(t, r, http.MethodGet, "/api/notifications", bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notifications []struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &notifications))
	require.Len(t, notifications, 1)
	assert.Equal(t, "follow", notifications[0].Type)

	// Suggestions exclude people already followed.
	w, env = doJSON(t, r, http.MethodGet, "/api/suggestions", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var suggested []struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &suggested))
	assert.Empty(t, suggested)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/users/"+bobUsername+"/follow", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = doJSON(t, r, http.MethodGet, "/api/users/"+bobUsername+"/followers", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &followers))
	assert.Empty(t, followers)
}

func TestPrivateProfileGate(t *testing.T) {
	_, r := newTestServer(t, func(c *config.Config) { c.PrivateProfiles = true })

	alice := signupAndLogin(t, r, "Alice", "alice@example.com")
	bob := signupAndLogin(t, r, "Bob", "bob@example.com")

	w, env := doJSON(t, r, http.MethodGet, "/api/me", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))

	// Flip Alice private through the shared in-memory database.
	gormDB, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormDB.Exec("UPDATE users SET is_private = ? WHERE id = ?", true, alice.id).Error)

	// A stranger sees neither the profile nor the posts.
	w, _ = doJSON(t, r, http.MethodGet, "/api/users/"+me.Username, bob.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/api/users/"+me.Username+"/posts", bob.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owner still sees their own profile.
	w, _ = doJSON(t, r, http.MethodGet, "/api/users/"+me.Username, alice.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Following unlocks both.
	w, _ = doJSON(t, r, http.MethodPost, "/api/users/"+me.Username+"/follow", bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = doJSON(t, r, http.MethodGet, "/api/users/"+me.Username, bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		IsPrivate   bool `json:"is_private"`
		IsFollowing bool `json:"is_following"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.True(t, profile.IsPrivate)
	assert.True(t, profile.IsFollowing)
	w, _ = doJSON(t, r, http.MethodGet, "/api/users/"+me.Username+"/posts", bob.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
