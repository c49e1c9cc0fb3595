package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkwell-app/backend/internal/database"
	"github.com/inkwell-app/backend/internal/httputil"
	"github.com/inkwell-app/backend/internal/models"
	"gorm.io/gorm"
)

// ListNotifications returns the authenticated user's notifications,
// newest first. ?unread=true filters to unread only.
// GET /api/v1/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	userID, ok := httputil.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	query := database.DB.Model(&models.Notification{}).Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httputil.RespondInternalError(c, "failed to count notifications")
		return
	}

	var notifications []models.Notification
	err := query.Preload("Actor").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notifications).Error
	if err != nil {
		httputil.RespondInternalError(c, "failed to load notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"page":          page,
		"page_size":     pageSize,
		"total":         total,
	})
}

// GetNotificationCounts returns total and unread counts
// GET /api/v1/notifications/counts
func (h *Handlers) GetNotificationCounts(c *gin.Context) {
	userID, ok := httputil.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var total, unread int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		httputil.RespondInternalError(c, "failed to count notifications")
		return
	}
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&unread).Error; err != nil {
		httputil.RespondInternalError(c, "failed to count notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"unread": unread,
	})
}

// MarkNotificationRead marks one notification as read. Only the
// recipient can mark their own.
// POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, ok := httputil.GetUserIDFromContext(c)
	if !ok {
		return
	}
	notificationID := c.Param("id")

	var notification models.Notification
	err := database.DB.First(&notification, "id = ?", notificationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httputil.RespondNotFound(c, "notification")
		return
	} else if err != nil {
		httputil.RespondInternalError(c, "failed to load notification")
		return
	}

	if notification.UserID != userID {
		httputil.RespondForbidden(c)
		return
	}

	if err := database.DB.Model(&notification).UpdateColumn("is_read", true).Error; err != nil {
		httputil.RespondInternalError(c, "failed to update notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}

// MarkAllNotificationsRead marks all of the user's notifications read
// POST /api/v1/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := httputil.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		httputil.RespondInternalError(c, "failed to update notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "all marked read",
		"updated": result.RowsAffected,
	})
}
