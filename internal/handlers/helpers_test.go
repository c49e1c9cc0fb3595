package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkwell-app/backend/internal/auth"
	"github.com/inkwell-app/backend/internal/database"
	"github.com/inkwell-app/backend/internal/logger"
	"github.com/inkwell-app/backend/internal/middleware"
	"github.com/inkwell-app/backend/internal/models"
	"github.com/inkwell-app/backend/internal/realtime"
	"github.com/inkwell-app/backend/internal/storage"
)

const testJWTSecret = "handlers-test-secret"

// memUploader is an in-memory ImageUploader for tests
type memUploader struct {
	mu      sync.Mutex
	uploads map[string][]byte
	deleted []string
}

func newMemUploader() *memUploader {
	return &memUploader{uploads: make(map[string][]byte)}
}

func (m *memUploader) UploadImage(_ context.Context, imageData []byte, userID, originalFilename string) (*storage.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("images/%s/%s", userID, originalFilename)
	m.uploads[key] = imageData
	return &storage.UploadResult{
		Key: key,
		URL: "https://cdn.test/" + key,
	}, nil
}

func (m *memUploader) DeleteFile(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.uploads, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// recordingConn is a fake live connection for notification assertions
type recordingConn struct {
	id string

	mu        sync.Mutex
	delivered []*realtime.Message
}

func newRecordingConn() *recordingConn {
	return &recordingConn{id: uuid.New().String()}
}

func (r *recordingConn) ID() string { return r.id }

func (r *recordingConn) Deliver(msg *realtime.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, msg)
}

func (r *recordingConn) deliveries() []*realtime.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*realtime.Message, len(r.delivered))
	copy(out, r.delivered)
	return out
}

// testEnv bundles everything a handler test needs
type testEnv struct {
	router    *gin.Engine
	svc       *auth.Service
	directory *realtime.Directory
	uploader  *memUploader
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()
	logger.SugaredLog = logger.Log.Sugar()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Notification{},
	))
	database.DB = db

	svc := auth.NewService([]byte(testJWTSecret))
	directory := realtime.NewDirectory()
	uploader := newMemUploader()
	api := New(svc, uploader, directory)

	router := gin.New()
	authRequired := middleware.Auth(svc)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/register", api.Register)
		v1.POST("/auth/login", api.Login)
		v1.POST("/auth/logout", authRequired, api.Logout)
		v1.GET("/auth/me", authRequired, api.Me)

		v1.GET("/posts", api.ListPosts)
		v1.GET("/posts/:id", api.GetPost)
		v1.GET("/posts/:id/comments", api.ListComments)
		v1.GET("/posts/:id/likes", api.ListPostLikes)
		v1.POST("/posts", authRequired, api.CreatePost)
		v1.DELETE("/posts/:id", authRequired, api.DeletePost)
		v1.POST("/posts/:id/comments", authRequired, api.CreateComment)
		v1.POST("/posts/:id/like", authRequired, api.LikePost)
		v1.DELETE("/posts/:id/like", authRequired, api.UnlikePost)
		v1.DELETE("/comments/:id", authRequired, api.DeleteComment)

		v1.GET("/notifications", authRequired, api.ListNotifications)
		v1.GET("/notifications/counts", authRequired, api.GetNotificationCounts)
		v1.POST("/notifications/:id/read", authRequired, api.MarkNotificationRead)
		v1.POST("/notifications/read-all", authRequired, api.MarkAllNotificationsRead)

		v1.GET("/users/:id", api.GetUser)
		v1.GET("/users/:id/posts", api.ListUserPosts)
		v1.PATCH("/me", authRequired, api.UpdateProfile)
		v1.POST("/me/avatar", authRequired, api.UploadAvatar)
	}

	return &testEnv{
		router:    router,
		svc:       svc,
		directory: directory,
		uploader:  uploader,
	}
}

// createUser registers a user directly through the auth service and
// returns the user plus a valid token
func (e *testEnv) createUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()

	resp, err := e.svc.Register(auth.RegisterRequest{
		Email:       username + "@example.com",
		Username:    username,
		Password:    "password123",
		DisplayName: username,
	})
	require.NoError(t, err)
	return &resp.User, resp.Token
}

// createPost inserts a post row directly
func (e *testEnv) createPost(t *testing.T, userID, title string) *models.Post {
	t.Helper()

	post := &models.Post{
		UserID: userID,
		Title:  title,
		Body:   "body of " + title,
	}
	require.NoError(t, database.DB.Create(post).Error)
	return post
}

// doJSON performs a request with an optional JSON body and bearer token
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// doMultipart performs a multipart request with form fields and one file
func (e *testEnv) doMultipart(t *testing.T, method, path, token string, fields map[string]string, fileField, fileName string, fileData []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a recorded JSON response
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "body: %s", w.Body.String())
}
