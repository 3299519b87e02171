package api

import (
	"errors"

	"github.com/wb-go/wbf/ginext"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/dto"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/repo"
)

func (r *Routers) listNotifications(c *ginext.Context) {
	page, err := r.Notifications.ListMine(c.Request.Context(), userID(c))
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to list notifications")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, page)
}

func (r *Routers) markNotificationRead(c *ginext.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.Notifications.MarkRead(c.Request.Context(), userID(c), id); err != nil {
		if errors.Is(err, repo.ErrNotificationNotFound) {
			dto.NotFoundError(c, dto.NotificationNotFound, "Notification not found")
			return
		}
		r.Log.Error().Err(err).Int64("notification_id", id).Msg("failed to mark notification read")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, map[string]string{"message": "Notification marked as read"})
}

func (r *Routers) markAllNotificationsRead(c *ginext.Context) {
	if err := r.Notifications.MarkAllRead(c.Request.Context(), userID(c)); err != nil {
		r.Log.Error().Err(err).Msg("failed to mark notifications read")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, map[string]string{"message": "All notifications marked as read"})
}

func (r *Routers) deleteNotification(c *ginext.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.Notifications.Delete(c.Request.Context(), userID(c), id); err != nil {
		if errors.Is(err, repo.ErrNotificationNotFound) {
			dto.NotFoundError(c, dto.NotificationNotFound, "Notification not found")
			return
		}
		r.Log.Error().Err(err).Int64("notification_id", id).Msg("failed to delete notification")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, map[string]string{"message": "Notification deleted"})
}
