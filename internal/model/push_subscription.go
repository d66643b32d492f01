package model

import "time"

// PushSubscription holds the browser push subscription for one operator.
// At most one live record per operator; re-subscribing upserts on operator_id.
type PushSubscription struct {
	OperatorID string    `gorm:"primaryKey;size:64"`
	Endpoint   string    `gorm:"size:512;not null"`
	P256DH     string    `gorm:"column:p256dh;not null"`
	Auth       string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
