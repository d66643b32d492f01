package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ezystaff-backend/internal/changefeed"
	"ezystaff-backend/internal/model"
)

// Store defines the database operations for the three operator-scoped tables.
type Store interface {
	// Push subscriptions (one per operator, upsert on operator_id).
	UpsertPushSubscription(ctx context.Context, sub model.PushSubscription) error
	GetPushSubscription(ctx context.Context, operatorID string) (*model.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, operatorID string) error

	// Notifications (insert-only; Read is the single mutable field).
	CreateNotification(ctx context.Context, n *model.Notification) error
	RecentNotifications(ctx context.Context, operatorID string, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, operatorID string) (int64, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// Shift check-ins (at most one per shift+operator pair).
	GetCheckin(ctx context.Context, shiftID, operatorID string) (*model.ShiftCheckin, error)
	CreateCheckin(ctx context.Context, c *model.ShiftCheckin) error
	UpdateCheckin(ctx context.Context, c *model.ShiftCheckin) error

	// Changes exposes the per-operator change signal for feed consumers.
	Changes() *changefeed.Hub
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	hub *changefeed.Hub
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, hub: changefeed.NewHub()}
}

func (s *gormStore) Changes() *changefeed.Hub { return s.hub }

func (s *gormStore) DB() *gorm.DB { return s.db }

// UpsertPushSubscription creates or replaces the operator's subscription.
// The conflict target is operator_id, so re-subscribing never duplicates.
func (s *gormStore) UpsertPushSubscription(ctx context.Context, sub model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "operator_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"endpoint", "p256dh", "auth", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return fmt.Errorf("upsert push subscription for operator %s: %w", sub.OperatorID, err)
	}
	return nil
}

// GetPushSubscription returns nil without error when the operator has no
// subscription; absence is an expected state, not a failure.
func (s *gormStore) GetPushSubscription(ctx context.Context, operatorID string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).First(&sub, "operator_id = ?", operatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription for operator %s: %w", operatorID, err)
	}
	return &sub, nil
}

// DeletePushSubscription removes the operator's subscription. Deleting a
// missing record succeeds, so unsubscribe stays idempotent.
func (s *gormStore) DeletePushSubscription(ctx context.Context, operatorID string) error {
	err := s.db.WithContext(ctx).Delete(&model.PushSubscription{OperatorID: operatorID}).Error
	if err != nil {
		return fmt.Errorf("delete push subscription for operator %s: %w", operatorID, err)
	}
	return nil
}

func (s *gormStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification for operator %s: %w", n.OperatorID, err)
	}
	s.hub.Publish(n.OperatorID)
	return nil
}

func (s *gormStore) RecentNotifications(ctx context.Context, operatorID string, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := s.db.WithContext(ctx).
		Where("operator_id = ?", operatorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("fetch notifications for operator %s: %w", operatorID, err)
	}
	return notifications, nil
}

func (s *gormStore) CountUnread(ctx context.Context, operatorID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("operator_id = ? AND read = ?", operatorID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread for operator %s: %w", operatorID, err)
	}
	return count, nil
}

// MarkNotificationRead flips Read to true. Re-marking an already-read
// record is a harmless no-op at the SQL level.
func (s *gormStore) MarkNotificationRead(ctx context.Context, id string) error {
	var n model.Notification
	if err := s.db.WithContext(ctx).Select("operator_id").First(&n, "id = ?", id).Error; err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	s.hub.Publish(n.OperatorID)
	return nil
}

// GetCheckin returns nil without error when no record exists for the pair;
// the controller derives the NotStarted state from absence.
func (s *gormStore) GetCheckin(ctx context.Context, shiftID, operatorID string) (*model.ShiftCheckin, error) {
	var c model.ShiftCheckin
	err := s.db.WithContext(ctx).
		First(&c, "shift_id = ? AND operator_id = ?", shiftID, operatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkin for shift %s operator %s: %w", shiftID, operatorID, err)
	}
	return &c, nil
}

func (s *gormStore) CreateCheckin(ctx context.Context, c *model.ShiftCheckin) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create checkin for shift %s operator %s: %w", c.ShiftID, c.OperatorID, err)
	}
	return nil
}

func (s *gormStore) UpdateCheckin(ctx context.Context, c *model.ShiftCheckin) error {
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("update checkin %s: %w", c.ID, err)
	}
	return nil
}
