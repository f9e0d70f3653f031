package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-service/internal/model"
)

func (h *Handler) pushKey(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(gin.H{"public_key": h.vapidPublicKey}))
}

func (h *Handler) createSubscription(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256DH string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	sub := &model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.Keys.P256DH,
		Auth:     req.Keys.Auth,
	}
	if err := h.subscriptions.Upsert(c.Request.Context(), sub); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(gin.H{"message": "subscribed"}))
}

func (h *Handler) deleteSubscription(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := h.subscriptions.Delete(c.Request.Context(), req.Endpoint); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"message": "unsubscribed"}))
}
