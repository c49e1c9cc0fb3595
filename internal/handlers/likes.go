package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkwell-app/backend/internal/database"
	"github.com/inkwell-app/backend/internal/httputil"
	"github.com/inkwell-app/backend/internal/logger"
	"github.com/inkwell-app/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LikePost likes a post and notifies the author. Liking an already
// liked post is a conflict; the unique index backs this up under
// concurrent requests.
// POST /api/v1/posts/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
	user, ok := httputil.GetUserFromContext(c)
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

	var existing models.Like
	err = database.DB.Where("post_id = ? AND user_id = ?", postID, user.ID).First(&existing).Error
	if err == nil {
		httputil.RespondConflict(c, "post already liked")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		httputil.RespondInternalError(c, "failed to check like")
		return
	}

	like := models.Like{
		PostID: postID,
		UserID: user.ID,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		logger.Log.Error("Failed to like post", zap.Error(err))
		httputil.RespondInternalError(c, "failed to like post")
		return
	}

	h.dispatchNotification(post.UserID, user, models.NotificationTypeLike, post.ID,
		fmt.Sprintf("%s liked your post \"%s\"", user.DisplayName, post.Title))

	c.JSON(http.StatusCreated, gin.H{"message": "post liked"})
}

// UnlikePost removes a like
// DELETE /api/v1/posts/:id/like
func (h *Handlers) UnlikePost(c *gin.Context) {
	userID, ok := httputil.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var like models.Like
	err := database.DB.Where("post_id = ? AND user_id = ?", postID, userID).First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httputil.RespondNotFound(c, "like")
		return
	} else if err != nil {
		httputil.RespondInternalError(c, "failed to check like")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&like).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		logger.Log.Error("Failed to unlike post", zap.Error(err))
		httputil.RespondInternalError(c, "failed to unlike post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "like removed"})
}

// ListPostLikes returns who liked a post
// GET /api/v1/posts/:id/likes
func (h *Handlers) ListPostLikes(c *gin.Context) {
	postID := c.Param("id")
	page, pageSize := parsePagination(c)

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		httputil.RespondNotFound(c, "post")
		return
	}

	var likes []models.Like
	var total int64

	query := database.DB.Model(&models.Like{}).Where("post_id = ?", postID)
	if err := query.Count(&total).Error; err != nil {
		httputil.RespondInternalError(c, "failed to count likes")
		return
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&likes).Error
	if err != nil {
		httputil.RespondInternalError(c, "failed to load likes")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"likes":     likes,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}
