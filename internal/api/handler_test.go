package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ezystaff-backend/config"
	"ezystaff-backend/internal/model"
	"ezystaff-backend/internal/notification"
	"ezystaff-backend/internal/store"
)

const testVAPIDPublicKey = "BEl62iUYgUivxIkv69yViEuiBIa40HuWukzpkiHype611dKpaOeaG8bR7obOPKdaOYpvLS0wdK2K5OiKrq4mVEY"

func newTestRouter(t *testing.T, name string) (*gin.Engine, store.Store) {
	return newTestRouterWithFeed(t, name, config.FeedConfig{RecentLimit: 10})
}

func newTestRouterWithFeed(t *testing.T, name string, feedCfg config.FeedConfig) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}, &model.Notification{}, &model.ShiftCheckin{}))

	s := store.NewGormStore(db)
	options := &webpush.Options{
		Subscriber:     "mailto:ops@example.com",
		TTL:            30,
		VAPIDPublicKey: testVAPIDPublicKey,
	}
	pool := notification.NewWorkerPool(1, s, options)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	pool.Start(ctx)

	geoCfg := config.GeolocationConfig{Timeout: time.Second, MaxAge: time.Second}
	h := NewHandler(s, notification.NewDispatcher(s, pool), options, feedCfg, geoCfg)
	return NewRouter(h, 100, 100, time.Minute), s
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostNotification(t *testing.T) {
	r, s := newTestRouter(t, "api_notify")

	w := doJSON(t, r, http.MethodPost, "/api/notifications", gin.H{
		"operatorId": "op-1",
		"title":      "Shift",
		"body":       "You have a new shift",
		"type":       "shift_assignment",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "no push subscription")

	count, err := s.CountUnread(context.Background(), "op-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostNotificationRejectsIncompleteBody(t *testing.T) {
	r, _ := newTestRouter(t, "api_notify_bad")

	w := doJSON(t, r, http.MethodPost, "/api/notifications", gin.H{
		"operatorId": "op-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostShiftNotificationComposesMessage(t *testing.T) {
	r, s := newTestRouter(t, "api_shift_notify")

	w := doJSON(t, r, http.MethodPost, "/api/shifts/notify", gin.H{
		"operatorId": "op-1",
		"shiftId":    "shift-7",
		"eventTitle": "Fiera Milano",
		"clientName": "ACME",
		"address":    "Via Roma 1",
		"date":       "2026-09-01",
		"startTime":  "09:00",
		"endTime":    "17:00",
	})
	require.Equal(t, http.StatusOK, w.Code)

	notifications, err := s.RecentNotifications(context.Background(), "op-1", 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	n := notifications[0]
	assert.Equal(t, "Nuovo turno assegnato", n.Title)
	assert.Contains(t, n.Message, "ACME")
	assert.Contains(t, n.Message, "Fiera Milano")
	assert.Contains(t, n.Message, "Via Roma 1")
	assert.Contains(t, n.Message, "09:00-17:00")
	assert.Equal(t, model.TypeShiftAssignment, n.Type)
	require.NotNil(t, n.ShiftID)
	assert.Equal(t, "shift-7", *n.ShiftID)
}

func TestPostShiftNotificationHonorsOptOut(t *testing.T) {
	r, s := newTestRouter(t, "api_shift_optout")

	w := doJSON(t, r, http.MethodPost, "/api/shifts/notify", gin.H{
		"operatorId":           "op-1",
		"shiftId":              "shift-7",
		"eventTitle":           "Fiera Milano",
		"notificationsEnabled": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	count, err := s.CountUnread(context.Background(), "op-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "opted-out operators get no record")
}

func TestSubscriptionLifecycle(t *testing.T) {
	r, _ := newTestRouter(t, "api_subscription")

	// Nothing stored yet.
	w := doJSON(t, r, http.MethodGet, "/api/operators/op-1/subscription", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Store, then replace.
	w = doJSON(t, r, http.MethodPut, "/api/operators/op-1/subscription", gin.H{
		"endpoint": "https://push.example.com/device-1",
		"p256dh":   "p256dh-material",
		"auth":     "auth-material",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/operators/op-1/subscription", gin.H{
		"endpoint": "https://push.example.com/device-2",
		"p256dh":   "p256dh-material",
		"auth":     "auth-material",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/operators/op-1/subscription", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Endpoint string `json:"endpoint"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://push.example.com/device-2", resp.Endpoint)

	// Delete twice: both succeed.
	w = doJSON(t, r, http.MethodDelete, "/api/operators/op-1/subscription", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, r, http.MethodDelete, "/api/operators/op-1/subscription", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPutSubscriptionRejectsMissingKeys(t *testing.T) {
	r, _ := newTestRouter(t, "api_subscription_bad")

	w := doJSON(t, r, http.MethodPut, "/api/operators/op-1/subscription", gin.H{
		"endpoint": "https://push.example.com/device-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedEndpoints(t *testing.T) {
	r, s := newTestRouter(t, "api_feed")
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		n := model.Notification{
			ID:         "n-" + string(rune('a'+i)),
			OperatorID: "op-1",
			Title:      "Shift",
			Message:    "You have a new shift",
			Type:       model.TypeShiftAssignment,
			CreatedAt:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateNotification(ctx, &n))
		ids = append(ids, n.ID)
	}

	w := doJSON(t, r, http.MethodGet, "/api/operators/op-1/notifications?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed []model.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Len(t, feed, 2)
	assert.Equal(t, ids[2], feed[0].ID, "newest first")

	w = doJSON(t, r, http.MethodGet, "/api/operators/op-1/notifications?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/operators/op-1/notifications/unread_count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unread struct {
		Unread int64 `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unread))
	assert.Equal(t, int64(3), unread.Unread)

	w = doJSON(t, r, http.MethodPost, "/api/notifications/"+ids[0]+"/read", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/operators/op-1/notifications/unread_count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unread))
	assert.Equal(t, int64(2), unread.Unread)
}

func TestFeedDefaultLimitComesFromConfig(t *testing.T) {
	r, s := newTestRouterWithFeed(t, "api_feed_cfg", config.FeedConfig{RecentLimit: 2})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n := model.Notification{
			ID:         "cfg-" + string(rune('a'+i)),
			OperatorID: "op-1",
			Title:      "Shift",
			Message:    "You have a new shift",
			Type:       model.TypeShiftAssignment,
			CreatedAt:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateNotification(ctx, &n))
	}

	// No explicit limit: the configured window applies.
	w := doJSON(t, r, http.MethodGet, "/api/operators/op-1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed []model.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Len(t, feed, 2)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	r, _ := newTestRouter(t, "api_mark_unknown")

	w := doJSON(t, r, http.MethodPost, "/api/notifications/no-such-id/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckinEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, "api_checkin")

	// State before any record.
	w := doJSON(t, r, http.MethodGet, "/api/shifts/shift-1/checkins?operator_id=op-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "not_started", state.Status)

	w = doJSON(t, r, http.MethodGet, "/api/shifts/shift-1/checkins", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "operator identity is never ambient")

	// Check in with device coordinates.
	w = doJSON(t, r, http.MethodPost, "/api/shifts/shift-1/checkins", gin.H{
		"operatorId": "op-1",
		"notes":      "arrived",
		"lat":        45.46,
		"lng":        9.19,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var record model.ShiftCheckin
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	require.NotNil(t, record.LocationLat)
	assert.Equal(t, 45.46, *record.LocationLat)

	// A duplicate check-in conflicts.
	w = doJSON(t, r, http.MethodPost, "/api/shifts/shift-1/checkins", gin.H{
		"operatorId": "op-1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Check out, then verify the terminal state.
	w = doJSON(t, r, http.MethodPut, "/api/shifts/shift-1/checkins/checkout", gin.H{
		"operatorId": "op-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.NotNil(t, record.CheckOutTime)

	w = doJSON(t, r, http.MethodPut, "/api/shifts/shift-1/checkins/checkout", gin.H{
		"operatorId": "op-1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/shifts/shift-1/checkins?operator_id=op-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "checked_out", state.Status)
}

func TestCheckinWithoutCoordinatesFallsBack(t *testing.T) {
	r, _ := newTestRouter(t, "api_checkin_nogeo")

	w := doJSON(t, r, http.MethodPost, "/api/shifts/shift-1/checkins", gin.H{
		"operatorId": "op-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var record model.ShiftCheckin
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	require.NotNil(t, record.LocationLat)
	assert.Equal(t, 0.0, *record.LocationLat)
	assert.Equal(t, 0.0, *record.LocationLng)
}

func TestVAPIDPublicKey(t *testing.T) {
	r, _ := newTestRouter(t, "api_vapid")

	w := doJSON(t, r, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		PublicKey string `json:"public_key"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testVAPIDPublicKey, resp.PublicKey)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, "api_cors")

	req := httptest.NewRequest(http.MethodOptions, "/api/notifications", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "authorization")
}
