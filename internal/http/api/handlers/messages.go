package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/notify"
)

// MessageHandler manages the broadcast notification endpoints.
type MessageHandler struct {
	notify *notify.Service
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(n *notify.Service) *MessageHandler {
	return &MessageHandler{notify: n}
}

// formatNotification builds the notification response payload.
func formatNotification(n *models.Notification) gin.H {
	return gin.H{
		"id":         n.ID,
		"message":    n.Message,
		"created_at": n.CreatedAt,
	}
}

// publishMessageRequest defines the request body for publishing.
type publishMessageRequest struct {
	Message string `json:"message"`
}

// Publish appends a broadcast message to the log.
func (h *MessageHandler) Publish(c *gin.Context) {
	var body publishMessageRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	record, errPublish := h.notify.Publish(c.Request.Context(), sessionFrom(c), body.Message)
	if errPublish != nil {
		respondError(c, errPublish)
		return
	}
	c.JSON(http.StatusCreated, formatNotification(record))
}

// Get returns the latest message, or the whole log with ?all=1.
func (h *MessageHandler) Get(c *gin.Context) {
	if c.Query("all") == "1" {
		rows, errList := h.notify.List(c.Request.Context())
		if errList != nil {
			respondError(c, errList)
			return
		}
		out := make([]gin.H, 0, len(rows))
		for i := range rows {
			out = append(out, formatNotification(&rows[i]))
		}
		c.JSON(http.StatusOK, gin.H{"messages": out})
		return
	}

	latest, errLatest := h.notify.Latest(c.Request.Context())
	if errLatest != nil {
		respondError(c, errLatest)
		return
	}
	if latest == nil {
		c.JSON(http.StatusOK, gin.H{"message": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": formatNotification(latest)})
}
