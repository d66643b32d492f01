package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ezystaff-backend/internal/geo"
	"ezystaff-backend/internal/model"
	"ezystaff-backend/internal/store"
)

// Status is the derived presence state for one (shift, operator) pair.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
)

var (
	// ErrProfileMissing means no operator identity was resolvable.
	ErrProfileMissing = errors.New("operator profile missing")
	// ErrNoActiveCheckIn means check-out was requested before any check-in.
	ErrNoActiveCheckIn = errors.New("no active check-in for shift")
	// ErrAlreadyCheckedIn rejects a second check-in; the state never reverses.
	ErrAlreadyCheckedIn = errors.New("shift already checked in")
	// ErrAlreadyCheckedOut rejects any transition out of the terminal state.
	ErrAlreadyCheckedOut = errors.New("shift already checked out")
)

// Controller drives the NotStarted -> CheckedIn -> CheckedOut state
// machine for one shift and operator. State lives in the store record
// only; every predicate is derived from a fresh read.
type Controller struct {
	store      store.Store
	geo        *geo.Provider
	shiftID    string
	operatorID string
}

// NewController creates a controller bound to one shift and operator.
func NewController(s store.Store, provider *geo.Provider, shiftID, operatorID string) *Controller {
	return &Controller{store: s, geo: provider, shiftID: shiftID, operatorID: operatorID}
}

// Current returns the check-in record, or nil when none exists yet.
func (c *Controller) Current(ctx context.Context) (*model.ShiftCheckin, error) {
	return c.store.GetCheckin(ctx, c.shiftID, c.operatorID)
}

// Status derives the state from the current record.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	record, err := c.Current(ctx)
	if err != nil {
		return "", err
	}
	return statusOf(record), nil
}

func statusOf(record *model.ShiftCheckin) Status {
	switch {
	case record == nil || record.CheckInTime == nil:
		return StatusNotStarted
	case record.CheckOutTime == nil:
		return StatusCheckedIn
	default:
		return StatusCheckedOut
	}
}

// CheckIn records presence for the shift. Valid only from NotStarted.
// Location capture is best-effort; a failed fix degrades to the (0,0)
// sentinel and never blocks the check-in.
func (c *Controller) CheckIn(ctx context.Context, notes string) (*model.ShiftCheckin, error) {
	if c.operatorID == "" {
		return nil, ErrProfileMissing
	}

	record, err := c.Current(ctx)
	if err != nil {
		return nil, err
	}
	switch statusOf(record) {
	case StatusCheckedIn:
		return nil, ErrAlreadyCheckedIn
	case StatusCheckedOut:
		return nil, ErrAlreadyCheckedOut
	}

	fix := c.geo.Current(ctx)
	now := time.Now().UTC()
	newRecord := model.ShiftCheckin{
		ID:          uuid.NewString(),
		ShiftID:     c.shiftID,
		OperatorID:  c.operatorID,
		CheckInTime: &now,
		LocationLat: &fix.Lat,
		LocationLng: &fix.Lng,
	}
	if notes != "" {
		newRecord.Notes = &notes
	}

	// A concurrent check-in from another device loses here on the
	// (shift_id, operator_id) uniqueness constraint.
	if err := c.store.CreateCheckin(ctx, &newRecord); err != nil {
		return nil, fmt.Errorf("check-in failed: %w", err)
	}
	return &newRecord, nil
}

// CheckOut completes the shift presence. Valid only from CheckedIn.
// Notes keep their prior value when none are supplied.
func (c *Controller) CheckOut(ctx context.Context, notes string) (*model.ShiftCheckin, error) {
	if c.operatorID == "" {
		return nil, ErrProfileMissing
	}

	record, err := c.Current(ctx)
	if err != nil {
		return nil, err
	}
	switch statusOf(record) {
	case StatusNotStarted:
		return nil, ErrNoActiveCheckIn
	case StatusCheckedOut:
		return nil, ErrAlreadyCheckedOut
	}

	fix := c.geo.Current(ctx)
	now := time.Now().UTC()
	record.CheckOutTime = &now
	record.LocationLat = &fix.Lat
	record.LocationLng = &fix.Lng
	if notes != "" {
		record.Notes = &notes
	}

	if err := c.store.UpdateCheckin(ctx, record); err != nil {
		return nil, fmt.Errorf("check-out failed: %w", err)
	}
	return record, nil
}

// IsCheckedIn reports whether the operator is currently checked in.
func (c *Controller) IsCheckedIn(ctx context.Context) (bool, error) {
	status, err := c.Status(ctx)
	return status == StatusCheckedIn, err
}

// IsCheckedOut reports whether the shift presence is complete.
func (c *Controller) IsCheckedOut(ctx context.Context) (bool, error) {
	status, err := c.Status(ctx)
	return status == StatusCheckedOut, err
}
