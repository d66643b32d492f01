package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ezystaff-backend/internal/model"
	"ezystaff-backend/internal/store"
)

// Request is one notification to be recorded and, best-effort, pushed.
type Request struct {
	OperatorID string                 `json:"operatorId" binding:"required"`
	Title      string                 `json:"title" binding:"required"`
	Body       string                 `json:"body" binding:"required"`
	Type       model.NotificationType `json:"type" binding:"required"`
	EventID    *string                `json:"eventId"`
	ShiftID    *string                `json:"shiftId"`
}

// Receipt reports what happened to a notification request. Queued only
// says a push was handed to the workers, never whether it arrived.
type Receipt struct {
	NotificationID string
	Queued         bool
	Message        string
}

// pushPayload is the JSON the background agent parses on the device.
type pushPayload struct {
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Type       string  `json:"type"`
	BadgeCount int64   `json:"badgeCount"`
	EventID    *string `json:"eventId,omitempty"`
	ShiftID    *string `json:"shiftId,omitempty"`
}

// Dispatcher persists notifications and hands push deliveries to the
// worker pool. The in-app record is the durability guarantee; push is an
// enhancement whose failure never surfaces to the caller.
type Dispatcher struct {
	store store.Store
	pool  *WorkerPool
}

// NewDispatcher creates a dispatcher over the given store and pool.
func NewDispatcher(s store.Store, pool *WorkerPool) *Dispatcher {
	return &Dispatcher{store: s, pool: pool}
}

// Notify records the notification and queues a best-effort push. The only
// error it can return is the failure of the initial record write.
func (d *Dispatcher) Notify(ctx context.Context, req Request) (Receipt, error) {
	n := model.Notification{
		ID:         uuid.NewString(),
		OperatorID: req.OperatorID,
		Title:      req.Title,
		Message:    req.Body,
		Type:       req.Type,
		EventID:    req.EventID,
		ShiftID:    req.ShiftID,
		Read:       false,
		CreatedAt:  time.Now().UTC(),
	}
	if err := d.store.CreateNotification(ctx, &n); err != nil {
		return Receipt{}, err
	}

	sub, err := d.store.GetPushSubscription(ctx, req.OperatorID)
	if err != nil {
		// The record is durable; a broken subscription lookup only costs
		// the push, it cannot fail the call.
		log.Printf("subscription lookup failed for operator %s: %v", req.OperatorID, err)
		sub = nil
	}
	if sub == nil {
		return Receipt{
			NotificationID: n.ID,
			Queued:         false,
			Message:        "notification saved (no push subscription)",
		}, nil
	}

	payload := pushPayload{
		Title:   req.Title,
		Body:    req.Body,
		Type:    string(req.Type),
		EventID: req.EventID,
		ShiftID: req.ShiftID,
	}
	if unread, err := d.store.CountUnread(ctx, req.OperatorID); err == nil {
		payload.BadgeCount = unread
	} else {
		log.Printf("unread count failed for operator %s: %v", req.OperatorID, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to encode push payload for operator %s: %v", req.OperatorID, err)
		return Receipt{
			NotificationID: n.ID,
			Queued:         false,
			Message:        "notification saved (push payload encoding failed)",
		}, nil
	}

	d.pool.Enqueue(*sub, body)
	return Receipt{
		NotificationID: n.ID,
		Queued:         true,
		Message:        fmt.Sprintf("notification sent to operator %s", req.OperatorID),
	}, nil
}
