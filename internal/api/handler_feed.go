package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetNotifications returns the operator's most recent notifications,
// newest first, bounded by the limit query parameter. Without an explicit
// limit the configured feed window applies.
func (h *Handler) GetNotifications(c *gin.Context) {
	operatorID := c.Param("operator_id")

	limit := h.feed.RecentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	notifications, err := h.store.RecentNotifications(c.Request.Context(), operatorID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// GetUnreadCount returns the operator's unread notification count.
func (h *Handler) GetUnreadCount(c *gin.Context) {
	operatorID := c.Param("operator_id")

	count, err := h.store.CountUnread(c.Request.Context(), operatorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkNotificationRead flips one notification to read. Re-marking an
// already-read notification succeeds; an unknown id is a 404.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.MarkNotificationRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
