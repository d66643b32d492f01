package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"ezystaff-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, rateLimitPerSec float64, burst int, cacheTTL time.Duration) *gin.Engine {
	r := gin.Default()

	r.Use(mw.CORS())

	rateLimiter := mw.RateLimiter(rate.Limit(rateLimitPerSec), burst)

	// Only the static VAPID key endpoint is cacheable; everything else
	// must reflect the store immediately.
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Push delivery function
		api.POST("/notifications", h.PostNotification)
		api.POST("/shifts/notify", h.PostShiftNotification)

		// Notification feed
		api.GET("/operators/:operator_id/notifications", h.GetNotifications)
		api.GET("/operators/:operator_id/notifications/unread_count", h.GetUnreadCount)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)

		// Push subscription lifecycle
		api.PUT("/operators/:operator_id/subscription", h.PutSubscription)
		api.GET("/operators/:operator_id/subscription", h.GetSubscription)
		api.DELETE("/operators/:operator_id/subscription", h.DeleteSubscription)

		// Shift presence
		api.GET("/shifts/:shift_id/checkins", h.GetCheckin)
		api.POST("/shifts/:shift_id/checkins", h.PostCheckin)
		api.PUT("/shifts/:shift_id/checkins/checkout", h.PutCheckout)

		api.GET("/vapid_public_key", caching, h.GetVAPIDPublicKey)
	}

	return r
}
