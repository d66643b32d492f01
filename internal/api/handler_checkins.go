package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ezystaff-backend/internal/checkin"
	"ezystaff-backend/internal/geo"
)

type checkinRequest struct {
	OperatorID string   `json:"operatorId" binding:"required"`
	Notes      string   `json:"notes"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

// controllerFor builds the per-pair state machine. Operator identity is
// always explicit in the request, never ambient; coordinates were captured
// on the device, so the provider here just replays them (or degrades to
// the unknown sentinel when the device sent none).
func (h *Handler) controllerFor(shiftID, operatorID string, lat, lng *float64) *checkin.Controller {
	var locator geo.Locator = geo.UnavailableLocator{}
	if lat != nil && lng != nil {
		locator = geo.StaticLocator{Fix: geo.Fix{Lat: *lat, Lng: *lng}}
	}
	provider := geo.NewProvider(locator, h.geo.Timeout, h.geo.MaxAge)
	return checkin.NewController(h.store, provider, shiftID, operatorID)
}

// GetCheckin returns the derived presence state and record for the pair.
func (h *Handler) GetCheckin(c *gin.Context) {
	shiftID := c.Param("shift_id")
	operatorID := c.Query("operator_id")
	if operatorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "operator_id is required"})
		return
	}

	ctrl := h.controllerFor(shiftID, operatorID, nil, nil)
	record, err := ctrl.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load check-in"})
		return
	}
	status, err := ctrl.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load check-in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "checkin": record})
}

// PostCheckin records the operator's presence for the shift.
func (h *Handler) PostCheckin(c *gin.Context) {
	shiftID := c.Param("shift_id")

	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl := h.controllerFor(shiftID, req.OperatorID, req.Lat, req.Lng)
	record, err := ctrl.CheckIn(c.Request.Context(), req.Notes)
	if err != nil {
		respondCheckinError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// PutCheckout completes the operator's presence for the shift.
func (h *Handler) PutCheckout(c *gin.Context) {
	shiftID := c.Param("shift_id")

	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl := h.controllerFor(shiftID, req.OperatorID, req.Lat, req.Lng)
	record, err := ctrl.CheckOut(c.Request.Context(), req.Notes)
	if err != nil {
		respondCheckinError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// respondCheckinError maps precondition violations to 409 with a short
// user-facing message; everything else is a persistence failure.
func respondCheckinError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkin.ErrProfileMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": "operator profile missing"})
	case errors.Is(err, checkin.ErrNoActiveCheckIn):
		c.JSON(http.StatusConflict, gin.H{"error": "no active check-in"})
	case errors.Is(err, checkin.ErrAlreadyCheckedIn):
		c.JSON(http.StatusConflict, gin.H{"error": "already checked in"})
	case errors.Is(err, checkin.ErrAlreadyCheckedOut):
		c.JSON(http.StatusConflict, gin.H{"error": "already checked out"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "check-in storage failed"})
	}
}
