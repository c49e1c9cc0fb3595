package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-app/backend/internal/database"
	"github.com/inkwell-app/backend/internal/models"
)

func TestCreatePostJSON(t *testing.T) {
	env := setupTest(t)
	user, token := env.createUser(t, "alice")

	w := env.doJSON(t, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"title": "First post",
		"body":  "Hello, Inkwell!",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Post models.Post `json:"post"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, "First post", resp.Post.Title)
	assert.Equal(t, user.ID, resp.Post.UserID)
	assert.NotEmpty(t, resp.Post.ID)

	// Author's post counter moves with the insert
	var fresh models.User
	require.NoError(t, database.DB.First(&fresh, "id = ?", user.ID).Error)
	assert.Equal(t, 1, fresh.PostCount)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	env := setupTest(t)

	w := env.doJSON(t, http.MethodPost, "/api/v1/posts", "", map[string]string{
		"title": "nope",
		"body":  "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePostValidation(t *testing.T) {
	env := setupTest(t)
	_, token := env.createUser(t, "alice")

	w := env.doJSON(t, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"title": "no body here",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePostWithImage(t *testing.T) {
	env := setupTest(t)
	user, token := env.createUser(t, "alice")

	w := env.doMultipart(t, http.MethodPost, "/api/v1/posts", token,
		map[string]string{"title": "With image", "body": "look at this"},
		"image", "header.png", []byte("fake-png-bytes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Post models.Post `json:"post"`
	}
	decodeBody(t, w, &resp)
	assert.Contains(t, resp.Post.ImageURL, "https://cdn.test/")
	assert.Contains(t, resp.Post.ImageURL, user.ID)
}

func TestGetPost(t *testing.T) {
	env := setupTest(t)
	user, _ := env.createUser(t, "alice")
	post := env.createPost(t, user.ID, "Readable")

	w := env.doJSON(t, http.MethodGet, "/api/v1/posts/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Post models.Post `json:"post"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, post.ID, resp.Post.ID)
	assert.Equal(t, "alice", resp.Post.User.Username)
}

func TestGetPostNotFound(t *testing.T) {
	env := setupTest(t)

	w := env.doJSON(t, http.MethodGet, "/api/v1/posts/no-such-post", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPostsPagination(t *testing.T) {
	env := setupTest(t)
	user, _ := env.createUser(t, "alice")
	for i := 0; i < 25; i++ {
		env.createPost(t, user.ID, fmt.Sprintf("post-%02d", i))
	}

	w := env.doJSON(t, http.MethodGet, "/api/v1/posts?page=1&page_size=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Posts []models.Post `json:"posts"`
		Total int64         `json:"total"`
	}
	decodeBody(t, w, &resp)
	assert.Len(t, resp.Posts, 10)
	assert.Equal(t, int64(25), resp.Total)

	w = env.doJSON(t, http.MethodGet, "/api/v1/posts?page=3&page_size=10", "", nil)
	decodeBody(t, w, &resp)
	assert.Len(t, resp.Posts, 5)
}

func TestListPostsPageSizeCapped(t *testing.T) {
	env := setupTest(t)
	user, _ := env.createUser(t, "alice")
	env.createPost(t, user.ID, "only one")

	w := env.doJSON(t, http.MethodGet, "/api/v1/posts?page_size=5000", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		PageSize int `json:"page_size"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, maxPageSize, resp.PageSize)
}

func TestDeletePost(t *testing.T) {
	env := setupTest(t)
	user, token := env.createUser(t, "alice")
	post := env.createPost(t, user.ID, "Doomed")

	w := env.doJSON(t, http.MethodDelete, "/api/v1/posts/"+post.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.doJSON(t, http.MethodGet, "/api/v1/posts/"+post.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePostNotAuthor(t *testing.T) {
	env := setupTest(t)
	alice, _ := env.createUser(t, "alice")
	_, bobToken := env.createUser(t, "bob")
	post := env.createPost(t, alice.ID, "Alice's post")

	w := env.doJSON(t, http.MethodDelete, "/api/v1/posts/"+post.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListUserPosts(t *testing.T) {
	env := setupTest(t)
	alice, _ := env.createUser(t, "alice")
	bob, _ := env.createUser(t, "bob")
	env.createPost(t, alice.ID, "alice 1")
	env.createPost(t, alice.ID, "alice 2")
	env.createPost(t, bob.ID, "bob 1")

	w := env.doJSON(t, http.MethodGet, "/api/v1/users/"+alice.ID+"/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Posts []models.Post `json:"posts"`
		Total int64         `json:"total"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, int64(2), resp.Total)
	for _, p := range resp.Posts {
		assert.Equal(t, alice.ID, p.UserID)
	}
}
