package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
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

// maxAvatarSize caps avatar uploads at 5MB
const maxAvatarSize = 5 * 1024 * 1024

// GetUser returns a user's public profile
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	err := database.DB.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httputil.RespondNotFound(c, "user")
		return
	} else if err != nil {
		httputil.RespondInternalError(c, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
			"bio":          user.Bio,
			"avatar_url":   user.AvatarURL,
			"post_count":   user.PostCount,
			"created_at":   user.CreatedAt,
			"online":       h.directory != nil && h.directory.Online(user.ID),
		},
	})
}

// UpdateProfile updates the authenticated user's profile fields
// PATCH /api/v1/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := httputil.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=50"`
		Bio         *string `json:"bio" binding:"omitempty,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if len(updates) == 0 {
		httputil.RespondBadRequest(c, "nothing to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		logger.Log.Error("Failed to update profile", zap.Error(err))
		httputil.RespondInternalError(c, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UploadAvatar replaces the authenticated user's avatar image
// POST /api/v1/me/avatar
func (h *Handlers) UploadAvatar(c *gin.Context) {
	user, ok := httputil.GetUserFromContext(c)
	if !ok {
		return
	}

	if h.uploader == nil {
		httputil.RespondWithAPIError(c, apierrors.ServiceUnavailable("image uploads"))
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		httputil.RespondBadRequest(c, "avatar file is required")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarSize {
		httputil.RespondBadRequest(c, "avatar exceeds 5MB limit")
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		httputil.RespondInternalError(c, "failed to read avatar")
		return
	}

	uploadCtx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := h.uploader.UploadImage(uploadCtx, imageData, user.ID, header.Filename)
	if err != nil {
		logger.Log.Error("Avatar upload failed",
			zap.String("user_id", user.ID),
			zap.Error(err))
		httputil.RespondInternalError(c, "avatar upload failed")
		return
	}

	if err := database.DB.Model(user).UpdateColumn("avatar_url", result.URL).Error; err != nil {
		httputil.RespondInternalError(c, "failed to save avatar")
		return
	}
	user.AvatarURL = result.URL

	c.JSON(http.StatusOK, gin.H{
		"avatar_url": result.URL,
		"user":       user,
	})
}
