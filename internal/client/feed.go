package client

import (
	"context"
	"log"
	"sync"
	"time"

	"ezystaff-backend/internal/model"
	"ezystaff-backend/internal/store"
)

// Badge abstracts the OS app badge. Implementations that lack the API
// should return an error; the feed degrades silently either way.
type Badge interface {
	Set(count int) error
	Clear() error
}

// Feed keeps a bounded window of an operator's notifications, the unread
// count derived from it, and the OS badge, consistent with the store.
// Every change signal triggers a full re-fetch of the window: the change
// stream may coalesce or reorder, so incremental patching is never safe.
type Feed struct {
	store      store.Store
	operatorID string
	limit      int
	badge      Badge
	debounce   time.Duration

	mu            sync.Mutex
	notifications []model.Notification

	foreground chan struct{}
	cancelHub  func()
	done       chan struct{}
	closeOnce  sync.Once
}

// NewFeed creates a feed for one operator. badge may be nil when the
// platform has no badge API.
func NewFeed(s store.Store, operatorID string, limit int, badge Badge, debounce time.Duration) *Feed {
	return &Feed{
		store:      s,
		operatorID: operatorID,
		limit:      limit,
		badge:      badge,
		debounce:   debounce,
		foreground: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Start opens the change subscription, performs the initial fetch, and
// runs the refresh loop until ctx is cancelled or Close is called.
func (f *Feed) Start(ctx context.Context) {
	changes, cancel := f.store.Changes().Subscribe(f.operatorID)
	f.cancelHub = cancel

	f.refresh(ctx)

	go func() {
		var debounceTimer <-chan time.Time
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
				f.refresh(ctx)
			case <-f.foreground:
				// Let other state settle before recomputing the badge.
				debounceTimer = time.After(f.debounce)
			case <-debounceTimer:
				debounceTimer = nil
				f.refresh(ctx)
			case <-f.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close tears down the change subscription and stops further local
// updates. In-flight fetches complete and are discarded.
func (f *Feed) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
		if f.cancelHub != nil {
			f.cancelHub()
		}
	})
}

// Foreground signals that the application became visible. The resulting
// refresh is debounced.
func (f *Feed) Foreground() {
	select {
	case f.foreground <- struct{}{}:
	default:
	}
}

// refresh re-fetches the recent window and pushes the derived count to
// the badge. Store failures keep the previous snapshot.
func (f *Feed) refresh(ctx context.Context) {
	select {
	case <-f.done:
		return
	default:
	}

	notifications, err := f.store.RecentNotifications(ctx, f.operatorID, f.limit)
	if err != nil {
		log.Printf("notification refresh failed for operator %s: %v", f.operatorID, err)
		return
	}

	f.mu.Lock()
	f.notifications = notifications
	unread := unreadOf(notifications)
	f.mu.Unlock()

	f.syncBadge(unread)
}

func unreadOf(notifications []model.Notification) int {
	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// syncBadge maps count > 0 to Set and zero to Clear. A missing or failing
// badge API degrades silently.
func (f *Feed) syncBadge(count int) {
	if f.badge == nil {
		return
	}
	var err error
	if count > 0 {
		err = f.badge.Set(count)
	} else {
		err = f.badge.Clear()
	}
	if err != nil {
		log.Printf("badge update failed: %v", err)
	}
}

// Snapshot returns a copy of the current notification window.
func (f *Feed) Snapshot() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Notification, len(f.notifications))
	copy(out, f.notifications)
	return out
}

// UnreadCount is recomputed from the snapshot on every call; it is never
// incremented or decremented ad hoc.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return unreadOf(f.notifications)
}

// MarkAsRead optimistically flips local state, then persists. A failed
// persistence update is not rolled back; the next change signal
// reconciles the snapshot with the store.
func (f *Feed) MarkAsRead(ctx context.Context, id string) error {
	f.mu.Lock()
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].Read = true
			break
		}
	}
	unread := unreadOf(f.notifications)
	f.mu.Unlock()

	f.syncBadge(unread)

	if err := f.store.MarkNotificationRead(ctx, id); err != nil {
		log.Printf("mark-as-read failed for notification %s: %v", id, err)
		return err
	}
	return nil
}
