package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ezystaff-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription creates or replaces the operator's push subscription.
// The upsert keys on operator identity, so re-subscribing never duplicates.
func (h *Handler) PutSubscription(c *gin.Context) {
	operatorID := c.Param("operator_id")

	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := model.PushSubscription{
		OperatorID: operatorID,
		Endpoint:   req.Endpoint,
		P256DH:     req.P256DH,
		Auth:       req.Auth,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := h.store.UpsertPushSubscription(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}

	c.Status(http.StatusCreated)
}

// GetSubscription returns the operator's stored subscription endpoint, so
// the client can reconcile it against the platform-side subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	operatorID := c.Param("operator_id")

	sub, err := h.store.GetPushSubscription(c.Request.Context(), operatorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"endpoint": sub.Endpoint, "created_at": sub.CreatedAt})
}

// DeleteSubscription removes the operator's subscription. Deleting an
// absent record still reports success, keeping unsubscribe idempotent.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	operatorID := c.Param("operator_id")

	if err := h.store.DeletePushSubscription(c.Request.Context(), operatorID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subscription"})
		return
	}

	c.Status(http.StatusNoContent)
}
