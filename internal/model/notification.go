package model

import "time"

// NotificationType classifies a notification by the shift event it reports.
type NotificationType string

const (
	TypeShiftAssignment   NotificationType = "shift_assignment"
	TypeShiftUpdate       NotificationType = "shift_update"
	TypeShiftCancellation NotificationType = "shift_cancellation"
	TypeGeneral           NotificationType = "general"
)

// Notification is an append-only in-app notification record. The dispatcher
// is the only writer of new rows; the feed only ever flips Read to true.
type Notification struct {
	ID         string           `gorm:"primaryKey;size:36"`
	OperatorID string           `gorm:"index;size:64;not null"`
	Title      string           `gorm:"size:256;not null"`
	Message    string           `gorm:"not null"`
	Type       NotificationType `gorm:"size:32;not null"`
	EventID    *string          `gorm:"size:36"`
	ShiftID    *string          `gorm:"size:36"`
	Read       bool             `gorm:"not null;default:false"`
	CreatedAt  time.Time        `gorm:"not null;index"`
}
