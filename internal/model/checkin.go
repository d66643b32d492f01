package model

import "time"

// ShiftCheckin records an operator's confirmed presence for one shift.
// The composite unique index is the only guard against concurrent
// check-ins for the same pair from two devices.
type ShiftCheckin struct {
	ID           string     `gorm:"primaryKey;size:36"`
	ShiftID      string     `gorm:"size:36;not null;uniqueIndex:idx_shift_operator"`
	OperatorID   string     `gorm:"size:64;not null;uniqueIndex:idx_shift_operator"`
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	LocationLat  *float64
	LocationLng  *float64
	Notes        *string
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
