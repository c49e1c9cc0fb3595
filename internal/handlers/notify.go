package handlers

import (
	"github.com/inkwell-app/backend/internal/database"
	"github.com/inkwell-app/backend/internal/logger"
	"github.com/inkwell-app/backend/internal/models"
	"github.com/inkwell-app/backend/internal/realtime"
	"go.uber.org/zap"
)

// dispatchNotification persists a notification row and pushes it to the
// recipient's live connection if one is registered. The push is
// fire-and-forget: the HTTP mutation already succeeded and an offline
// recipient reads the row from the notifications API later.
//
// Self-notifications are skipped: liking or commenting on your own post
// produces nothing.
func (h *Handlers) dispatchNotification(recipientID string, actor *models.User, notifType models.NotificationType, postID, message string) {
	if recipientID == actor.ID {
		return
	}

	notification := models.Notification{
		UserID:  recipientID,
		ActorID: actor.ID,
		Type:    notifType,
		PostID:  postID,
		Message: message,
	}

	if err := database.DB.Create(&notification).Error; err != nil {
		logger.Log.Error("Failed to persist notification",
			zap.String("recipient", recipientID),
			zap.String("type", string(notifType)),
			zap.Error(err))
		return
	}

	if h.directory == nil {
		return
	}

	msg := realtime.NewMessage(realtime.MessageTypeNotification, realtime.NotificationPayload{
		ID:        notification.ID,
		Type:      string(notifType),
		Message:   message,
		PostID:    postID,
		ActorID:   actor.ID,
		ActorName: actor.DisplayName,
		CreatedAt: notification.CreatedAt.UnixMilli(),
	})

	go h.directory.Notify(recipientID, msg)
}
