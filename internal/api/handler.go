package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"ezystaff-backend/config"
	"ezystaff-backend/internal/notification"
	"ezystaff-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	dispatcher *notification.Dispatcher
	webpush    *webpush.Options
	feed       config.FeedConfig
	geo        config.GeolocationConfig
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, dispatcher *notification.Dispatcher, webpushOptions *webpush.Options, feed config.FeedConfig, geo config.GeolocationConfig) *Handler {
	return &Handler{
		store:      s,
		dispatcher: dispatcher,
		webpush:    webpushOptions,
		feed:       feed,
		geo:        geo,
	}
}
