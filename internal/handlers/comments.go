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

// CreateComment adds a comment to a post and notifies the post author
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	user, ok := httputil.GetUserFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req struct {
		Body string `json:"body" binding:"required,min=1,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}

	var post models.Post
	err := database.DB.First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httputil.RespondNotFound(c, "post")
		return
	} else if err != nil {
		httputil.RespondInternalError(c, "failed to load post")
		return
	}

	comment := models.Comment{
		PostID: postID,
		UserID: user.ID,
		Body:   req.Body,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		logger.Log.Error("Failed to create comment", zap.Error(err))
		httputil.RespondInternalError(c, "failed to create comment")
		return
	}

	h.dispatchNotification(post.UserID, user, models.NotificationTypeComment, post.ID,
		fmt.Sprintf("%s commented on your post \"%s\"", user.DisplayName, post.Title))

	comment.User = *user
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// ListComments returns a post's comments oldest-first, paginated
// GET /api/v1/posts/:id/comments
func (h *Handlers) ListComments(c *gin.Context) {
	postID := c.Param("id")
	page, pageSize := parsePagination(c)

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		httputil.RespondNotFound(c, "post")
		return
	}

	var comments []models.Comment
	var total int64

	query := database.DB.Model(&models.Comment{}).Where("post_id = ?", postID)
	if err := query.Count(&total).Error; err != nil {
		httputil.RespondInternalError(c, "failed to count comments")
		return
	}

	err := query.Preload("User").
		Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&comments).Error
	if err != nil {
		httputil.RespondInternalError(c, "failed to load comments")
		return
	}

	// Deleted comments keep their slot but lose their content
	for i := range comments {
		if comments[i].IsDeleted {
			comments[i].Body = ""
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":  comments,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

// DeleteComment soft-removes a comment. The comment author or the post
// author may delete.
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := httputil.GetUserIDFromContext(c)
	if !ok {
		return
	}
	commentID := c.Param("id")

	var comment models.Comment
	err := database.DB.Preload("Post").First(&comment, "id = ?", commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httputil.RespondNotFound(c, "comment")
		return
	} else if err != nil {
		httputil.RespondInternalError(c, "failed to load comment")
		return
	}

	if comment.UserID != userID && comment.Post.UserID != userID {
		httputil.RespondForbidden(c, "only the comment author or post author can delete a comment")
		return
	}

	// Repeating the delete must not decrement the counter again
	if comment.IsDeleted {
		httputil.RespondNotFound(c, "comment")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&comment).UpdateColumn("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
	if err != nil {
		logger.Log.Error("Failed to delete comment", zap.Error(err))
		httputil.RespondInternalError(c, "failed to delete comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
