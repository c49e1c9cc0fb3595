package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkwell-app/backend/internal/database"
	apierrors "github.com/inkwell-app/backend/internal/errors"
	"github.com/inkwell-app/backend/internal/httputil"
	"github.com/inkwell-app/backend/internal/logger"
	"github.com/inkwell-app/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxImageSize caps uploaded header images at 10MB
const maxImageSize = 10 * 1024 * 1024

// CreatePost creates a new post. Accepts JSON, or multipart form data
// when a header image is attached.
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := httputil.GetUserFromContext(c)
	if !ok {
		return
	}

	var title, body string
	var imageURL, imageKey string

	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		title = c.PostForm("title")
		body = c.PostForm("body")

		file, header, err := c.Request.FormFile("image")
		if err == nil {
			defer file.Close()

			if h.uploader == nil {
				httputil.RespondWithAPIError(c, apierrors.ServiceUnavailable("image uploads"))
				return
			}

			if header.Size > maxImageSize {
				httputil.RespondBadRequest(c, "image exceeds 10MB limit")
				return
			}

			imageData, err := io.ReadAll(file)
			if err != nil {
				httputil.RespondInternalError(c, "failed to read image")
				return
			}

			uploadCtx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
			defer cancel()

			result, err := h.uploader.UploadImage(uploadCtx, imageData, user.ID, header.Filename)
			if err != nil {
				logger.Log.Error("Image upload failed",
					zap.String("user_id", user.ID),
					zap.Error(err))
				httputil.RespondInternalError(c, "image upload failed")
				return
			}
			imageURL = result.URL
			imageKey = result.Key
		}
	} else {
		var req struct {
			Title string `json:"title" binding:"required,min=1,max=200"`
			Body  string `json:"body" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondBadRequest(c, err.Error())
			return
		}
		title = req.Title
		body = req.Body
	}

	if title == "" || body == "" {
		httputil.RespondValidationError(c, "title", "title and body are required")
		return
	}

	post := models.Post{
		UserID:   user.ID,
		Title:    title,
		Body:     body,
		ImageURL: imageURL,
		ImageKey: imageKey,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		logger.Log.Error("Failed to create post", zap.Error(err))
		httputil.RespondInternalError(c, "failed to create post")
		return
	}

	post.User = *user
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns a single post by ID
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	err := database.DB.Preload("User").First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httputil.RespondNotFound(c, "post")
		return
	} else if err != nil {
		httputil.RespondInternalError(c, "failed to load post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// ListPosts returns the reverse-chronological feed, paginated
// GET /api/v1/posts?page=1&page_size=20
func (h *Handlers) ListPosts(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var posts []models.Post
	var total int64

	query := database.DB.Model(&models.Post{})
	if err := query.Count(&total).Error; err != nil {
		httputil.RespondInternalError(c, "failed to count posts")
		return
	}

	err := query.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		httputil.RespondInternalError(c, "failed to load posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":     posts,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

// ListUserPosts returns one user's posts, paginated
// GET /api/v1/users/:id/posts
func (h *Handlers) ListUserPosts(c *gin.Context) {
	userID := c.Param("id")
	page, pageSize := parsePagination(c)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		httputil.RespondNotFound(c, "user")
		return
	}

	var posts []models.Post
	var total int64

	query := database.DB.Model(&models.Post{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		httputil.RespondInternalError(c, "failed to count posts")
		return
	}

	err := query.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		httputil.RespondInternalError(c, "failed to load posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":     posts,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

// DeletePost soft-deletes a post. Only the author may delete.
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := httputil.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	err := database.DB.First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httputil.RespondNotFound(c, "post")
		return
	} else if err != nil {
		httputil.RespondInternalError(c, "failed to load post")
		return
	}

	if post.UserID != userID {
		httputil.RespondForbidden(c, "only the author can delete a post")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error
	})
	if err != nil {
		logger.Log.Error("Failed to delete post", zap.Error(err))
		httputil.RespondInternalError(c, "failed to delete post")
		return
	}

	// Orphaned header image; removal is best-effort
	if post.ImageKey != "" && h.uploader != nil {
		go func(key string) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.uploader.DeleteFile(ctx, key); err != nil {
				logger.Log.Warn("Failed to delete post image", zap.String("key", key), zap.Error(err))
			}
		}(post.ImageKey)
	}

	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// parsePagination extracts page/page_size query params with caps
func parsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
