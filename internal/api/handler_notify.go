package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ezystaff-backend/internal/model"
	"ezystaff-backend/internal/notification"
)

// PostNotification is the push delivery function: it always persists the
// in-app record first and treats push delivery as best-effort. The only
// failing response is a failed record write.
func (h *Handler) PostNotification(c *gin.Context) {
	var req notification.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.dispatcher.Notify(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": receipt.Message})
}

type shiftNotifyRequest struct {
	OperatorID   string  `json:"operatorId" binding:"required"`
	ShiftID      string  `json:"shiftId" binding:"required"`
	EventTitle   string  `json:"eventTitle" binding:"required"`
	ClientName   string  `json:"clientName"`
	Address      string  `json:"address"`
	Date         string  `json:"date"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	ActivityType string  `json:"activityType"`
	EventID      *string `json:"eventId"`
	Enabled      *bool   `json:"notificationsEnabled"`
}

// PostShiftNotification composes the localized shift-assignment message
// from shift fields and funnels it through the same delivery pipeline.
func (h *Handler) PostShiftNotification(c *gin.Context) {
	var req shiftNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Enabled != nil && !*req.Enabled {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "notifications disabled for operator"})
		return
	}

	title := "Nuovo turno assegnato"
	body := fmt.Sprintf("Nuovo turno per %s", req.EventTitle)
	if req.ClientName != "" {
		body = fmt.Sprintf("Nuovo turno per %s - %s", req.ClientName, req.EventTitle)
	}
	if req.Address != "" {
		body += fmt.Sprintf("\n📍 %s", req.Address)
	}
	if req.Date != "" {
		body += fmt.Sprintf("\n📅 %s", req.Date)
		if req.StartTime != "" && req.EndTime != "" {
			body += fmt.Sprintf(" | %s-%s", req.StartTime, req.EndTime)
		}
	}
	if req.ActivityType != "" {
		body += fmt.Sprintf("\n🎯 %s", req.ActivityType)
	}

	shiftID := req.ShiftID
	receipt, err := h.dispatcher.Notify(c.Request.Context(), notification.Request{
		OperatorID: req.OperatorID,
		Title:      title,
		Body:       body,
		Type:       model.TypeShiftAssignment,
		EventID:    req.EventID,
		ShiftID:    &shiftID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": receipt.Message})
}
