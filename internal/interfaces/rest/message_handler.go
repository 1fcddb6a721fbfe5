package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crazygit/ewerobot/pkg/wechat"
)

// MessageHandler exposes the messaging APIs to account operators
type MessageHandler struct {
	client *wechat.Client
}

// NewMessageHandler creates a MessageHandler
func NewMessageHandler(client *wechat.Client) *MessageHandler {
	return &MessageHandler{client: client}
}

// BroadcastRequest is the body of POST /api/messages/broadcast
type BroadcastRequest struct {
	Content string `json:"content" binding:"required"`
}

// Broadcast handles POST /api/messages/broadcast: queue a text message to
// every follower
func (h *MessageHandler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.client.BroadcastText(c.Request.Context(), req.Content)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"msg_id":      result.MsgID,
		"msg_data_id": result.MsgDataID,
	})
}

// SendTemplateRequest is the body of POST /api/messages/template
type SendTemplateRequest struct {
	ToUser     string                             `json:"touser" binding:"required"`
	TemplateID string                             `json:"template_id" binding:"required"`
	URL        string                             `json:"url"`
	Data       map[string]wechat.TemplateDataItem `json:"data"`
}

// SendTemplate handles POST /api/messages/template
func (h *MessageHandler) SendTemplate(c *gin.Context) {
	var req SendTemplateRequest
	if !BindJSON(c, &req) {
		return
	}

	msgID, err := h.client.SendTemplateMessage(c.Request.Context(), wechat.TemplateMessage{
		ToUser:     req.ToUser,
		TemplateID: req.TemplateID,
		URL:        req.URL,
		Data:       req.Data,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msgid": msgID})
}
